package domain

// Binding is the durable association between a chat user and a resolved
// external account.
type Binding struct {
	ID          int32  `json:"id"`
	UserID      string `json:"user_id"`
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Level       int32  `json:"level"`
	Badge       string `json:"badge"`
	Admin       bool   `json:"admin"`
	CreatedOn   string `json:"created_on"`
	UpdatedOn   string `json:"updated_on"`
}

// Profile is the result of an external account lookup. Lookups are
// best-effort; any field may be zero.
type Profile struct {
	AccountID   string `json:"account_id"`
	AccountName string `json:"account_name"`
	Level       int32  `json:"level"`
	Badge       string `json:"badge"`
}
