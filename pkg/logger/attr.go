package logger

import (
	"log/slog"
	"time"
)

// Error wraps an error for structured logging under a stable key.
// A nil error produces an empty attribute that handlers drop.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// TenantID tags a record with the owning tenant.
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// ScheduleID tags a record with a posting schedule.
func ScheduleID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("schedule_id", id)
}

// MaterialID tags a record with a source material.
func MaterialID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("material_id", id)
}

// PostID tags a record with a published post.
func PostID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("post_id", id)
}

// AccountID tags a record with a connected social account.
func AccountID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("account_id", id)
}

// Platform tags a record with a social platform name.
func Platform(name string) slog.Attr {
	return slog.String("platform", name)
}

// Category tags a record with an error classification category.
func Category(name string) slog.Attr {
	return slog.String("category", name)
}

// Duration records elapsed time for an operation.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
