package model

// All lists every model managed by AutoMigrate.
func All() []any {
	return []any{&Account{}, &Follow{}, &Fan{}, &Blog{}, &BlogLike{}, &Outbox{}, &Inbox{}}
}
