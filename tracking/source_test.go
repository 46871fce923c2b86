package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"aadinath/api/models"
)

func TestAttribute_StickySource(t *testing.T) {
	first := Attribute("BATCH-7", "", "", "aadinath.in")
	assert.Equal(t, Attribution{Source: "BATCH-7", Type: models.SourceQR, Store: true}, first)

	// Later navigation without a tag reuses the stored one, ignoring the referrer.
	later := Attribute("", first.Source, "https://www.google.com/search?q=steel", "aadinath.in")
	assert.Equal(t, "BATCH-7", later.Source)
	assert.Equal(t, models.SourceQR, later.Type)
	assert.False(t, later.Store)

	assert.Equal(t, "", Attribute("UNKNOWN", "", "", "").Source)
}

func TestCategorizeReferrer(t *testing.T) {
	tests := []struct {
		name     string
		referrer string
		want     models.SourceType
	}{
		{"none", "", models.SourceDirect},
		{"google", "https://www.google.co.in/", models.SourceOrganic},
		{"bing", "https://bing.com/search?q=x", models.SourceOrganic},
		{"facebook", "https://m.facebook.com/", models.SourceSocial},
		{"twitter shortener", "https://t.co/abc", models.SourceSocial},
		{"whatsapp", "https://wa.me/919825207616", models.SourceSocial},
		{"lookalike host is a referral", "https://what.com/", models.SourceReferral},
		{"other host", "https://steel-directory.example/listing", models.SourceReferral},
		{"internal navigation", "https://www.aadinath.in/products", models.SourceDirect},
		{"garbage", "::not a url", models.SourceDirect},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeReferrer(tt.referrer, "aadinath.in:443"))
		})
	}
}

func TestTracked(t *testing.T) {
	assert.True(t, Tracked("/"))
	assert.True(t, Tracked("/products"))
	assert.True(t, Tracked("/administrator-contact"))
	assert.False(t, Tracked("/admin"))
	assert.False(t, Tracked("/admin/analytics"))
}
