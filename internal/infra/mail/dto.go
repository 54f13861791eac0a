package mail

// layoutData feeds the HTML alternative part of an outgoing email.
type layoutData struct {
	Subject    string
	Paragraphs []string
	AgentName  string
	Company    string
}

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Company  string

	dialer dialer
}
