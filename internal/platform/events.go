package platform

// Event — входящее событие платформы. Конкретные типы ниже.
type Event interface {
	isEvent()
}

// ActivityPosted — участник написал сообщение в канале сервера.
type ActivityPosted struct {
	GuildID    int64
	ChannelID  int64
	CategoryID int64 // 0, если канал вне категории
	UserID     int64
	Automated  bool // сообщения ботов не считаются
}

// ReactionAdded — участник поставил реакцию.
type ReactionAdded struct {
	GuildID    int64
	ChannelID  int64
	CategoryID int64
	UserID     int64 // кто поставил реакцию
	AuthorID   int64 // автор сообщения (для отсечения реакций на себя)
	Automated  bool
}

// MembershipTierChanged — участник начал или перестал бустить сервер.
type MembershipTierChanged struct {
	GuildID  int64
	UserID   int64
	Elevated bool
}

func (ActivityPosted) isEvent()        {}
func (ReactionAdded) isEvent()         {}
func (MembershipTierChanged) isEvent() {}
