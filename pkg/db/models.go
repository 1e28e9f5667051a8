package db

// Domain represents a sender domain registered for dispatch together with its
// bearer token. Re-registration rotates the token in place; there is never more
// than one active token per domain.
type Domain struct {
	Domain    string `gorm:"primaryKey"`
	Token     string `gorm:"uniqueIndex"`
	CreatedAt int64  `gorm:"autoCreateTime:false"`
}

// TableName overrides the gorm default to keep the historical schema name.
func (Domain) TableName() string { return "domains" }

// QueuedEmail is a pending outbound email awaiting delivery by the delivery
// worker. ToAddrs holds the recipient list serialized as JSON.
type QueuedEmail struct {
	ID         string `gorm:"primaryKey"`
	FromAddr   string
	ToAddrs    string
	Subject    string
	Body       string
	HTML       string
	EnqueuedAt int64 `gorm:"index"`
	Attempts   int
	LastError  string
}

// TableName overrides the gorm default to keep the historical schema name.
func (QueuedEmail) TableName() string { return "email_queue" }

// ArchivedEmail is the durable record of a successfully sent email. SentAt is
// the ordering key for retention culling; the autoincrement ID breaks ties
// between rows sharing the same millisecond in insertion order.
type ArchivedEmail struct {
	ID       uint `gorm:"primaryKey"`
	FromAddr string
	ToAddrs  string
	Subject  string
	Body     string
	HTML     string
	SentAt   int64 `gorm:"index"`
}

// TableName overrides the gorm default to keep the historical schema name.
func (ArchivedEmail) TableName() string { return "email_archive" }

// DeadEmail is a queued email that exhausted its delivery attempts and was
// evicted from the queue by the delivery worker.
type DeadEmail struct {
	ID         string `gorm:"primaryKey"`
	FromAddr   string
	ToAddrs    string
	Subject    string
	Body       string
	HTML       string
	EnqueuedAt int64
	Attempts   int
	LastError  string
	DeadAt     int64
}

// TableName overrides the gorm default to keep the historical schema name.
func (DeadEmail) TableName() string { return "email_deadletter" }

// Setting is a key/value row for settings that can be changed at runtime, such
// as the SMTP relay credentials set via the HTTP API.
type Setting struct {
	Key   string `gorm:"primaryKey"`
	Value string
}
