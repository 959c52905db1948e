package telephony

import (
	"fmt"
	"net/url"
	"strings"
)

// TwiML rendering for the telephony provider's webhook responses. The
// provider expects an XML document controlling the next step of the call.

const twimlVoice = "Polly.Joanna"

// ConversationTwiML greets the caller and opens a speech-recognition
// gather that posts the result to gatherURL.
func ConversationTwiML(gatherURL, greeting, customerID string) string {
	action := gatherURL + "?customerId=" + url.QueryEscape(customerID)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say voice="%s">%s</Say>
  <Gather input="speech" action="%s" speechTimeout="auto" language="en-US">
    <Say voice="%s">I'm listening.</Say>
  </Gather>
  <Say voice="%s">I didn't hear anything. Goodbye!</Say>
</Response>`, twimlVoice, EscapeXML(greeting), action, twimlVoice, twimlVoice)
}

// ContinueTwiML speaks the agent's reply and gathers the next utterance.
func ContinueTwiML(gatherURL, response, customerID string) string {
	action := gatherURL + "?customerId=" + url.QueryEscape(customerID)
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say voice="%s">%s</Say>
  <Gather input="speech" action="%s" speechTimeout="auto" language="en-US">
  </Gather>
  <Say voice="%s">Is there anything else I can help you with?</Say>
  <Gather input="speech" action="%s" speechTimeout="3" language="en-US">
  </Gather>
  <Say voice="%s">Thank you for calling. Goodbye!</Say>
</Response>`, twimlVoice, EscapeXML(response), action, twimlVoice, action, twimlVoice)
}

// HangupTwiML apologizes and ends the call; used when reply generation
// fails mid-conversation.
func HangupTwiML() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say voice="%s">I apologize, but I'm having trouble processing your request. Let me transfer you to a human agent.</Say>
  <Hangup />
</Response>`, twimlVoice)
}

// MediaStreamTwiML connects the call to a bidirectional media stream.
func MediaStreamTwiML(websocketURL, customerID string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say>Please wait while I connect you to our AI support agent.</Say>
  <Connect>
    <Stream url="%s">
      <Parameter name="customerId" value="%s" />
    </Stream>
  </Connect>
</Response>`, EscapeXML(websocketURL), EscapeXML(customerID))
}

// SayTwiML speaks a single message.
func SayTwiML(message string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say>%s</Say>
</Response>`, EscapeXML(message))
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// EscapeXML escapes the XML special characters of a spoken text.
func EscapeXML(text string) string {
	return xmlEscaper.Replace(text)
}
