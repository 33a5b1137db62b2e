package mailer

import "sync"

// SentEmail captures a Send call made against the mock.
type SentEmail struct {
	Recipient    string
	TemplateFile string
	Data         any
}

// MockMailer records outgoing mail instead of delivering it. Receipt and
// balance-due notifications are dispatched from background goroutines, so
// access is synchronized and assertions should poll (assert.Eventually).
type MockMailer struct {
	mu   sync.RWMutex
	sent []SentEmail
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(recipient, templateFile string, data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = append(m.sent, SentEmail{
		Recipient:    recipient,
		TemplateFile: templateFile,
		Data:         data,
	})

	return nil
}

// SentTo returns the mails recorded for a recipient.
func (m *MockMailer) SentTo(recipient string) []SentEmail {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var mails []SentEmail
	for _, mail := range m.sent {
		if mail.Recipient == recipient {
			mails = append(mails, mail)
		}
	}

	return mails
}

// Sent returns a copy of every recorded mail.
func (m *MockMailer) Sent() []SentEmail {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]SentEmail(nil), m.sent...)
}

// Reset clears the record between scenarios.
func (m *MockMailer) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sent = nil
}
