package models

import (
	"time"

	"github.com/lib/pq"
)

type MirrorObject struct {
	Resource string     `json:"resource" gorm:"primaryKey;type:text"`
	ID       string     `json:"id" gorm:"primaryKey;type:text"`
	Type     string     `json:"type" gorm:"type:text;index"`
	Title    string     `json:"title" gorm:"type:text"`
	State    string     `json:"state" gorm:"type:text;index"`
	Revision string     `json:"revision" gorm:"type:text"`
	Cestamp  string     `json:"cestamp" gorm:"type:text"`
	Hash     string     `json:"hash" gorm:"type:text;not null"`
	Payload  string     `json:"payload" gorm:"type:jsonb;not null"`
	Modified *time.Time `json:"modified" gorm:"type:timestamp with time zone"`
	SyncedAt time.Time  `json:"syncedAt" gorm:"type:timestamp with time zone;not null;index"`
	CDate    time.Time  `json:"cdate" gorm:"->;<-:create;type:timestamp with time zone;not null;default:clock_timestamp()"`
}

type SyncRun struct {
	ID         string         `json:"id" gorm:"primaryKey;type:text"`
	Resource   string         `json:"resource" gorm:"type:text;index"`
	Text       string         `json:"text" gorm:"type:text"`
	Status     string         `json:"status" gorm:"type:text;not null"`
	Seen       int            `json:"seen" gorm:"not null;default:0"`
	Stored     int            `json:"stored" gorm:"not null;default:0"`
	Unchanged  int            `json:"unchanged" gorm:"not null;default:0"`
	Skipped    int            `json:"skipped" gorm:"not null;default:0"`
	Failed     pq.StringArray `json:"failed" gorm:"type:text[]"`
	Error      string         `json:"error" gorm:"type:text"`
	StartedAt  time.Time      `json:"startedAt" gorm:"type:timestamp with time zone;not null"`
	FinishedAt *time.Time     `json:"finishedAt" gorm:"type:timestamp with time zone"`
}
