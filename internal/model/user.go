package model

// User represents a registered account.
//
// The email address is the identity: it is the primary key in both stores,
// and signup with an existing email is a conflict. Users carry no password;
// login is by email alone.
type User struct {
	Email     string `json:"email"     dynamodbav:"email"`
	Username  string `json:"username"  dynamodbav:"username"`
	CreatedAt int64  `json:"createdAt" dynamodbav:"createdAt"`
}
