// internal/common/cards/urls_test.go
package cards

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapSearchURL(t *testing.T) {
	assert.Equal(t, "https://maps.google.com/maps?q=%E5%B8%82%E5%BA%9C%20%E5%85%AC%E5%BB%81", MapSearchURL("市府 公廁"))
	assert.Equal(t, "https://maps.google.com/maps?q=a%2Fb%26c%3Dd%2B", MapSearchURL("a/b&c=d+"))
	assert.Equal(t, "https://maps.google.com/maps?q=-._~", MapSearchURL("-._~"))
}

func TestEnsureValidActionURI(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "already valid",
			in:   "https://maps.google.com/maps?q=25.03,121.56",
			want: "https://maps.google.com/maps?q=25.03%2C121.56",
		},
		{
			name: "unicode query",
			in:   "https://www.google.com/maps/search/?api=1&query=台北車站",
			want: "https://www.google.com/maps/search/?api=1&query=%E5%8F%B0%E5%8C%97%E8%BB%8A%E7%AB%99",
		},
		{
			name: "unicode path",
			in:   "https://www.google.com/maps/place/台北 車站",
			want: "https://www.google.com/maps/place/%E5%8F%B0%E5%8C%97%20%E8%BB%8A%E7%AB%99",
		},
		{
			name: "already escaped path is not double escaped",
			in:   "https://example.com/a%20b",
			want: "https://example.com/a%20b",
		},
		{
			name: "blank value and order kept",
			in:   "http://example.com/?z=1&flag&a=",
			want: "http://example.com/?z=1&flag=&a=",
		},
		{
			name: "fragment kept",
			in:   "https://example.com/p#section-2",
			want: "https://example.com/p#section-2",
		},
		{
			name: "non http scheme",
			in:   "javascript:alert(1)",
			want: "https://maps.google.com/maps?q=javascript%3Aalert%281%29",
		},
		{
			name: "no scheme",
			in:   "台北市信義區市府路1號",
			want: MapSearchURL("台北市信義區市府路1號"),
		},
		{
			name: "unparsable",
			in:   "http://example.com/%zz",
			want: MapSearchURL("http://example.com/%zz"),
		},
		{
			name: "upper case scheme",
			in:   "HTTPS://example.com",
			want: "https://example.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EnsureValidActionURI(tt.in))
		})
	}
}

func TestEnsureValidActionURI_Idempotent(t *testing.T) {
	inputs := []string{
		"https://www.google.com/maps/search/?api=1&query=台北 車站",
		"geo:25.03,121.56",
		"https://example.com/a b/c?x=1 2#frag",
	}
	for _, in := range inputs {
		once := EnsureValidActionURI(in)
		assert.Equal(t, once, EnsureValidActionURI(once), in)
	}
}
