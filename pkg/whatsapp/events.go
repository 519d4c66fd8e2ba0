package whatsapp

import (
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"

	"github.com/whatsbot/whatsbot-go/pkg/connection"
	"github.com/whatsbot/whatsbot-go/pkg/session"
)

// translate maps a whatsmeow event to a session event. The second result is
// false for events the session does not care about.
//
// Open carries no JID here; the connection fills it from the device store.
func translate(evt any) (session.Event, bool) {
	switch e := evt.(type) {
	case *events.QR:
		return session.PairingChallenge{Codes: len(e.Codes)}, true
	case *events.PairSuccess:
		return session.Paired{JID: e.ID.String()}, true
	case *events.PairError:
		return session.Closed{Reason: connection.ReasonConnectionClosed}, true
	case *events.Connected:
		return session.Open{}, true
	case *events.LoggedOut:
		return session.Closed{Reason: connection.ReasonLoggedOut}, true
	case *events.StreamReplaced:
		return session.Closed{Reason: connection.ReasonConnectionReplaced}, true
	case *events.Disconnected:
		return session.Closed{Reason: connection.ReasonConnectionLost}, true
	case *events.ConnectFailure:
		return session.Closed{Reason: failureReason(e.Reason)}, true
	case *events.TemporaryBan:
		return session.Closed{Reason: connection.ReasonForbidden}, true
	case *events.ClientOutdated:
		return session.Closed{Reason: connection.ReasonClientOutdated}, true
	case *events.Message:
		return session.Incoming{Message: toMessage(e)}, true
	default:
		return nil, false
	}
}

// failureReason maps a connect failure code to a close reason. Only codes
// that reject this device's credentials become ReasonBadSession; server
// faults stay transient.
func failureReason(code events.ConnectFailureReason) connection.Reason {
	switch {
	case code.IsLoggedOut():
		return connection.ReasonLoggedOut
	case code == events.ConnectFailureTempBanned:
		return connection.ReasonForbidden
	case code == events.ConnectFailureClientOutdated:
		return connection.ReasonClientOutdated
	case code == events.ConnectFailureCATExpired,
		code == events.ConnectFailureCATInvalid,
		code == events.ConnectFailureClientUnknown:
		return connection.ReasonBadSession
	case code >= 500:
		return connection.ReasonUnavailableService
	default:
		return connection.Reason(int(code))
	}
}

// toMessage flattens an inbound message. Only plain and extended text carry
// text; every other payload is KindOther.
func toMessage(e *events.Message) session.Message {
	msg := session.Message{
		ID:       e.Info.ID,
		Chat:     e.Info.Chat.String(),
		Sender:   e.Info.Sender.String(),
		PushName: e.Info.PushName,
		Group:    e.Info.IsGroup,
		FromMe:   e.Info.IsFromMe,
	}
	msg.Kind, msg.Text = extractText(e.Message)
	return msg
}

func extractText(m *waE2E.Message) (session.Kind, string) {
	if m == nil {
		return session.KindOther, ""
	}
	if m.Conversation != nil {
		return session.KindConversation, m.GetConversation()
	}
	if ext := m.GetExtendedTextMessage(); ext != nil {
		return session.KindExtendedText, ext.GetText()
	}
	return session.KindOther, ""
}
