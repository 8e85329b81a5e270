package meeting

import "context"

// Meeting is the opaque result of provisioning a meeting room.
type Meeting struct {
	ID       string
	JoinURL  string
	Password string
}

// Provisioner creates a meeting room with an external provider.
type Provisioner interface {
	Provision(ctx context.Context, topic string) (*Meeting, error)
}
