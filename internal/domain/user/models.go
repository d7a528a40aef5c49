package user

// User is the current user as reported by the external API.
// Marketplace is nil until the payment provider integration is authorized.
type User struct {
	Marketplace *string `json:"marketplace"`
}

// Connection is the user's marketplace connection state.
// It is either Disconnected or Connected.
type Connection interface {
	connection()
}

// Disconnected means the user has not authorized the marketplace integration yet.
type Disconnected struct{}

// Connected carries the identifier of an authorized marketplace.
type Connected struct {
	MarketplaceID string
}

func (Disconnected) connection() {}
func (Connected) connection()    {}

// Connection derives the connection state from the optional marketplace field.
// An empty identifier is treated as not connected.
func (u *User) Connection() Connection {
	if u == nil || u.Marketplace == nil || *u.Marketplace == "" {
		return Disconnected{}
	}
	return Connected{MarketplaceID: *u.Marketplace}
}
