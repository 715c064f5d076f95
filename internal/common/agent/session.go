// internal/common/agent/session.go
package agent

import "time"

// taipei is used when the tz database is unavailable in the container.
var taipei = time.FixedZone("CST", 8*60*60)

// LoadLocation resolves the session timezone, falling back to UTC+8.
func LoadLocation(name string) *time.Location {
	if name == "" {
		return taipei
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return taipei
	}
	return loc
}

// SessionKey partitions agent memory by user and by hour: "<userID>:<YYYYMMDDHH>".
func SessionKey(userID string, ts time.Time, loc *time.Location) string {
	if loc == nil {
		loc = taipei
	}
	return userID + ":" + ts.In(loc).Format("2006010215")
}
