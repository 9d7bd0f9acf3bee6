// Package member holds the durable member registry, the declarative config
// sync and the inbound sender resolver.
package member

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	contractx "github.com/openhearth/hearth/hearth/contract"
)

const defaultNamespace = "hearth"

// schema matches the persisted layout: members, member_identities (composite
// PK on channel+channel_id), subgroups and subgroup_members with cascading
// deletes from both parents. Timestamps are epoch milliseconds.
const schema = `
CREATE TABLE IF NOT EXISTS members (
	member_id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'member',
	timezone TEXT,
	preferred_channel TEXT,
	preferences TEXT,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS member_identities (
	member_id TEXT NOT NULL,
	channel TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	username TEXT,
	display_name TEXT,
	PRIMARY KEY (channel, channel_id),
	FOREIGN KEY (member_id) REFERENCES members(member_id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_identities_member ON member_identities(member_id);

CREATE TABLE IF NOT EXISTS subgroups (
	subgroup_id TEXT PRIMARY KEY,
	group_key TEXT NOT NULL,
	name TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS subgroup_members (
	subgroup_id TEXT NOT NULL,
	member_id TEXT NOT NULL,
	PRIMARY KEY (subgroup_id, member_id),
	FOREIGN KEY (subgroup_id) REFERENCES subgroups(subgroup_id) ON DELETE CASCADE,
	FOREIGN KEY (member_id) REFERENCES members(member_id) ON DELETE CASCADE
);
`

type memberRow struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	MemberID         string `bun:"member_id,pk"`
	Name             string `bun:"name,notnull"`
	Role             string `bun:"role,notnull"`
	Timezone         string `bun:"timezone,nullzero"`
	PreferredChannel string `bun:"preferred_channel,nullzero"`
	Preferences      string `bun:"preferences,nullzero"`
	CreatedAt        int64  `bun:"created_at"`
	UpdatedAt        int64  `bun:"updated_at"`
}

type identityRow struct {
	bun.BaseModel `bun:"table:member_identities,alias:mi"`

	Channel     string `bun:"channel,pk"`
	ChannelID   string `bun:"channel_id,pk"`
	MemberID    string `bun:"member_id,notnull"`
	Username    string `bun:"username,nullzero"`
	DisplayName string `bun:"display_name,nullzero"`
}

type subgroupRow struct {
	bun.BaseModel `bun:"table:subgroups,alias:sg"`

	SubgroupID string `bun:"subgroup_id,pk"`
	GroupKey   string `bun:"group_key,notnull"`
	Name       string `bun:"name,notnull"`
	CreatedAt  int64  `bun:"created_at"`
}

type subgroupMemberRow struct {
	bun.BaseModel `bun:"table:subgroup_members,alias:sgm"`

	SubgroupID string `bun:"subgroup_id,pk"`
	MemberID   string `bun:"member_id,pk"`
}

// Registry is the durable store of members, their cross-channel identities
// and ad-hoc subgroups. It owns one exclusive connection to the backing
// SQLite database for the process lifetime; open it once and release it via
// Close on shutdown. A single-writer process per state directory is assumed.
type Registry struct {
	db        *bun.DB
	path      string
	namespace string
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithNamespace overrides the state subdirectory the database lives in.
// The default is "hearth".
func WithNamespace(namespace string) RegistryOption {
	return func(r *Registry) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// NewRegistry opens (creating if needed) the member database at
// <stateDir>/<namespace>/members.db and ensures the schema.
func NewRegistry(stateDir string, opts ...RegistryOption) (*Registry, error) {
	r := &Registry{namespace: defaultNamespace}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	dir := filepath.Join(stateDir, r.namespace)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create state dir: %v", contractx.ErrStorage, err)
	}
	r.path = filepath.Join(dir, "members.db")

	sqldb, err := sql.Open(sqliteshim.ShimName, r.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", contractx.ErrStorage, r.path, err)
	}
	// Single exclusive connection; registry calls serialize on it.
	sqldb.SetMaxOpenConns(1)

	r.db = bun.NewDB(sqldb, sqlitedialect.New())
	if _, err := r.db.ExecContext(context.Background(), schema); err != nil {
		_ = r.db.Close()
		return nil, fmt.Errorf("%w: ensure schema: %v", contractx.ErrStorage, err)
	}

	log.Info().Str("path", r.path).Msg("member registry initialized")
	return r, nil
}

// Path returns the database file location.
func (r *Registry) Path() string {
	return r.path
}

// Close releases the backing connection.
func (r *Registry) Close() error {
	return r.db.Close()
}

// UpsertMember fully replaces the member record: all mutable fields and the
// entire identity set are overwritten; an absent member is created. Identity
// replacement (delete then reinsert) runs inside one transaction, so a
// concurrent reader never observes a member with half its identities. An
// identity already bound to another member is superseded.
func (r *Registry) UpsertMember(ctx context.Context, m contractx.Member) error {
	if m.MemberID == "" {
		return contractx.ErrInvalidMemberID
	}

	prefs := ""
	if len(m.Preferences) > 0 {
		raw, err := json.Marshal(m.Preferences)
		if err != nil {
			return fmt.Errorf("%w: encode preferences: %v", contractx.ErrStorage, err)
		}
		prefs = string(raw)
	}

	now := time.Now().UnixMilli()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		exists, err := tx.NewSelect().
			Model((*memberRow)(nil)).
			Where("member_id = ?", m.MemberID).
			Exists(ctx)
		if err != nil {
			return err
		}

		row := memberRow{
			MemberID:         m.MemberID,
			Name:             m.Name,
			Role:             string(m.Role),
			Timezone:         m.Timezone,
			PreferredChannel: m.PreferredChannel,
			Preferences:      prefs,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if exists {
			_, err = tx.NewUpdate().
				Model(&row).
				Column("name", "role", "timezone", "preferred_channel", "preferences", "updated_at").
				WherePK().
				Exec(ctx)
		} else {
			_, err = tx.NewInsert().Model(&row).Exec(ctx)
		}
		if err != nil {
			return err
		}

		if _, err := tx.NewDelete().
			Model((*identityRow)(nil)).
			Where("member_id = ?", m.MemberID).
			Exec(ctx); err != nil {
			return err
		}
		if len(m.Identities) == 0 {
			return nil
		}
		rows := make([]identityRow, 0, len(m.Identities))
		for _, identity := range m.Identities {
			rows = append(rows, identityRow{
				Channel:     identity.Channel,
				ChannelID:   identity.ID,
				MemberID:    m.MemberID,
				Username:    identity.Username,
				DisplayName: identity.DisplayName,
			})
		}
		_, err = tx.NewInsert().
			Model(&rows).
			On("CONFLICT (channel, channel_id) DO UPDATE").
			Set("member_id = EXCLUDED.member_id").
			Set("username = EXCLUDED.username").
			Set("display_name = EXCLUDED.display_name").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: upsert member %s: %v", contractx.ErrStorage, m.MemberID, err)
	}
	return nil
}

// GetMember returns the member by id, or nil when absent.
func (r *Registry) GetMember(ctx context.Context, memberID string) (*contractx.Member, error) {
	var row memberRow
	err := r.db.NewSelect().
		Model(&row).
		Where("member_id = ?", memberID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get member %s: %v", contractx.ErrStorage, memberID, err)
	}

	identities, err := r.identitiesFor(ctx, row.MemberID)
	if err != nil {
		return nil, err
	}
	member, err := toMember(row, identities)
	if err != nil {
		return nil, err
	}
	return member, nil
}

// GetAllMembers returns every member ordered by name.
func (r *Registry) GetAllMembers(ctx context.Context) ([]contractx.Member, error) {
	var rows []memberRow
	if err := r.db.NewSelect().
		Model(&rows).
		Order("name ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list members: %v", contractx.ErrStorage, err)
	}

	members := make([]contractx.Member, 0, len(rows))
	for _, row := range rows {
		identities, err := r.identitiesFor(ctx, row.MemberID)
		if err != nil {
			return nil, err
		}
		member, err := toMember(row, identities)
		if err != nil {
			return nil, err
		}
		members = append(members, *member)
	}
	return members, nil
}

// ResolveByChannelIdentity looks up the member bound to a (channel, channelId)
// pair. Both fields compare case-insensitively. Returns nil when unbound.
func (r *Registry) ResolveByChannelIdentity(ctx context.Context, channel, channelID string) (*contractx.Member, error) {
	var row identityRow
	err := r.db.NewSelect().
		Model(&row).
		Where("lower(channel) = lower(?)", channel).
		Where("lower(channel_id) = lower(?)", channelID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve identity %s/%s: %v", contractx.ErrStorage, channel, channelID, err)
	}
	return r.GetMember(ctx, row.MemberID)
}

// RemoveMember deletes the member, cascading to its identities and subgroup
// memberships. ScopedContext lives in an external store and is not touched.
func (r *Registry) RemoveMember(ctx context.Context, memberID string) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*identityRow)(nil)).
			Where("member_id = ?", memberID).
			Exec(ctx); err != nil {
			return err
		}
		if _, err := tx.NewDelete().
			Model((*subgroupMemberRow)(nil)).
			Where("member_id = ?", memberID).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*memberRow)(nil)).
			Where("member_id = ?", memberID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: remove member %s: %v", contractx.ErrStorage, memberID, err)
	}
	return nil
}

// CreateSubgroup creates an ad-hoc subgroup under groupKey with the given
// members. Duplicate member ids are tolerated.
func (r *Registry) CreateSubgroup(ctx context.Context, groupKey, name string, memberIDs []string) (*contractx.Subgroup, error) {
	if groupKey == "" {
		return nil, contractx.ErrInvalidGroupKey
	}

	subgroupID := uuid.NewString()
	now := time.Now().UnixMilli()
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(&subgroupRow{
			SubgroupID: subgroupID,
			GroupKey:   groupKey,
			Name:       name,
			CreatedAt:  now,
		}).Exec(ctx); err != nil {
			return err
		}
		for _, memberID := range memberIDs {
			if _, err := tx.NewInsert().Model(&subgroupMemberRow{
				SubgroupID: subgroupID,
				MemberID:   memberID,
			}).Ignore().Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create subgroup %s: %v", contractx.ErrStorage, name, err)
	}

	return &contractx.Subgroup{
		SubgroupID: subgroupID,
		GroupKey:   groupKey,
		Name:       name,
		MemberIDs:  memberIDs,
		CreatedAt:  time.UnixMilli(now),
	}, nil
}

// GetSubgroups lists the subgroups of a group ordered by creation time.
func (r *Registry) GetSubgroups(ctx context.Context, groupKey string) ([]contractx.Subgroup, error) {
	var rows []subgroupRow
	if err := r.db.NewSelect().
		Model(&rows).
		Where("group_key = ?", groupKey).
		Order("created_at ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: list subgroups for %s: %v", contractx.ErrStorage, groupKey, err)
	}

	subgroups := make([]contractx.Subgroup, 0, len(rows))
	for _, row := range rows {
		var memberIDs []string
		if err := r.db.NewSelect().
			Model((*subgroupMemberRow)(nil)).
			Column("member_id").
			Where("subgroup_id = ?", row.SubgroupID).
			Scan(ctx, &memberIDs); err != nil {
			return nil, fmt.Errorf("%w: subgroup members for %s: %v", contractx.ErrStorage, row.SubgroupID, err)
		}
		subgroups = append(subgroups, contractx.Subgroup{
			SubgroupID: row.SubgroupID,
			GroupKey:   row.GroupKey,
			Name:       row.Name,
			MemberIDs:  memberIDs,
			CreatedAt:  time.UnixMilli(row.CreatedAt),
		})
	}
	return subgroups, nil
}

// DissolveSubgroup removes the subgroup and its memberships.
func (r *Registry) DissolveSubgroup(ctx context.Context, subgroupID string) error {
	err := r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*subgroupMemberRow)(nil)).
			Where("subgroup_id = ?", subgroupID).
			Exec(ctx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*subgroupRow)(nil)).
			Where("subgroup_id = ?", subgroupID).
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: dissolve subgroup %s: %v", contractx.ErrStorage, subgroupID, err)
	}
	return nil
}

// SubgroupIDsForMember returns the ids of subgroups the member belongs to,
// used when filtering subgroup-scoped context for a viewer.
func (r *Registry) SubgroupIDsForMember(ctx context.Context, memberID string) ([]string, error) {
	var ids []string
	if err := r.db.NewSelect().
		Model((*subgroupMemberRow)(nil)).
		Column("subgroup_id").
		Where("member_id = ?", memberID).
		Scan(ctx, &ids); err != nil {
		return nil, fmt.Errorf("%w: subgroups for member %s: %v", contractx.ErrStorage, memberID, err)
	}
	return ids, nil
}

func (r *Registry) identitiesFor(ctx context.Context, memberID string) ([]contractx.ChannelIdentity, error) {
	var rows []identityRow
	// rowid order preserves the order identities were declared in.
	if err := r.db.NewSelect().
		Model(&rows).
		Where("member_id = ?", memberID).
		OrderExpr("rowid ASC").
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("%w: identities for %s: %v", contractx.ErrStorage, memberID, err)
	}

	identities := make([]contractx.ChannelIdentity, 0, len(rows))
	for _, row := range rows {
		identities = append(identities, contractx.ChannelIdentity{
			Channel:     row.Channel,
			ID:          row.ChannelID,
			Username:    row.Username,
			DisplayName: row.DisplayName,
		})
	}
	return identities, nil
}

func toMember(row memberRow, identities []contractx.ChannelIdentity) (*contractx.Member, error) {
	var prefs map[string]any
	if row.Preferences != "" {
		if err := json.Unmarshal([]byte(row.Preferences), &prefs); err != nil {
			return nil, fmt.Errorf("%w: decode preferences for %s: %v", contractx.ErrStorage, row.MemberID, err)
		}
	}
	return &contractx.Member{
		MemberID:         row.MemberID,
		Name:             row.Name,
		Role:             contractx.MemberRole(row.Role),
		Timezone:         row.Timezone,
		PreferredChannel: row.PreferredChannel,
		Identities:       identities,
		Preferences:      prefs,
	}, nil
}
