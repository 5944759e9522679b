package ui

import "time"

type noticeLevel int

const (
	noticeInfo noticeLevel = iota
	noticeWarn
	noticeError
)

// notice is a transient status line shown in the header.
type notice struct {
	text  string
	level noticeLevel
	at    time.Time
}

func (n *notice) expire(now time.Time) {
	if n.text != "" && now.Sub(n.at) >= NoticeLifetime {
		*n = notice{}
	}
}

func (m *Model) setNotice(level noticeLevel, text string) {
	m.notice = notice{text: text, level: level, at: time.Now()}
}
