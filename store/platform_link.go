package store

// PlatformLink maps a platform-specific sender id to a unified user id.
type PlatformLink struct {
	ID             int64
	UserID         string
	Platform       string // telegram, discord, x, ...
	PlatformUserID string
	Username       string
	CreatedTs      int64
}

// FindPlatformLink specifies the conditions for finding platform links.
type FindPlatformLink struct {
	UserID         *string
	Platform       *string
	PlatformUserID *string
	Limit          int
}
