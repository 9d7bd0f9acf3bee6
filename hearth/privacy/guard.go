package privacy

import (
	"context"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

// ContextSource yields the private-layer context items used while composing
// the reply for a session. *session.MemoryTracker satisfies it.
type ContextSource interface {
	PrivateUsed(sessionKey string) []contractx.ScopedContext
}

// MemberLister resolves source member names for violation descriptions.
// *member.Registry satisfies it.
type MemberLister interface {
	GetAllMembers(ctx context.Context) ([]contractx.Member, error)
}

// ScanOutboundReply checks a composed reply against the private context used
// during its composition. A non-empty result means block or revise the reply.
func ScanOutboundReply(ctx context.Context, text, sessionKey string, source ContextSource, members MemberLister) ([]string, error) {
	private := source.PrivateUsed(sessionKey)
	if len(private) == 0 {
		return nil, nil
	}
	all, err := members.GetAllMembers(ctx)
	if err != nil {
		return nil, err
	}
	return Scan(text, private, all), nil
}
