package telephony

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhoneNumber(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ten digits assumed US", "5551234567", "+15551234567"},
		{"formatted ten digits", "(555) 123-4567", "+15551234567"},
		{"eleven digits with country code", "15551234567", "+15551234567"},
		{"already E.164", "+15551234567", "+15551234567"},
		{"plus with formatting stripped", "+44 20 7946 0958", "+442079460958"},
		{"other length passed through with plus", "123456", "+123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhoneNumber(tt.in))
		})
	}
}

func TestEscapeXML(t *testing.T) {
	got := EscapeXML(`Tom & Jerry say "5 < 6" & '7 > 2'`)
	assert.NotContains(t, got, `"`)
	assert.NotContains(t, got, "'")
	assert.Equal(t, "Tom &amp; Jerry say &quot;5 &lt; 6&quot; &amp; &apos;7 &gt; 2&apos;", got)
}

func TestConversationTwiML(t *testing.T) {
	twiml := ConversationTwiML("https://example.com/api/twilio/conversation", "Welcome back!", "sam@example.com")

	assert.True(t, strings.HasPrefix(twiml, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, twiml, "Welcome back!")
	assert.Contains(t, twiml, "customerId=sam%40example.com")
	assert.Contains(t, twiml, `input="speech"`)
}

func TestContinueTwiML_EscapesReply(t *testing.T) {
	twiml := ContinueTwiML("https://example.com/c", `Use the "reset" button & wait`, "u1")
	assert.Contains(t, twiml, "&quot;reset&quot; button &amp; wait")
}

func TestMediaStreamTwiML(t *testing.T) {
	twiml := MediaStreamTwiML("wss://example.com/api/twilio/media-stream", "+15550100")

	assert.Contains(t, twiml, `<Stream url="wss://example.com/api/twilio/media-stream">`)
	assert.Contains(t, twiml, `<Parameter name="customerId" value="+15550100" />`)
}

func TestSayTwiML(t *testing.T) {
	twiml := SayTwiML("Thanks & goodbye")

	assert.True(t, strings.HasPrefix(twiml, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, twiml, "<Say>Thanks &amp; goodbye</Say>")
}
