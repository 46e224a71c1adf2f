package types

// Stats summarizes a Plan's action counts.
type Stats struct {
	Install   int
	Reinstall int
	Upgrade   int
	Downgrade int
	Remove    int
}
