package mail

type EmailSender struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	dial func() (gomailSendCloser, error)
}
