package request

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// FindUser fetches a user record by id. A missing user returns (nil, nil).
func (s *Store) FindUser(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, email, profile_id, quota_count FROM users WHERE id = ?`,
		id,
	)
	var (
		user      User
		email     sql.NullString
		profileID sql.NullString
	)
	err := row.Scan(&user.ID, &user.Name, &email, &profileID, &user.QuotaCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	user.Email = email.String
	user.ProfileID = profileID.String
	return &user, nil
}

// FindAdmin fetches an admin record by id. A missing admin returns (nil, nil).
func (s *Store) FindAdmin(ctx context.Context, id string) (*Admin, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, email FROM admins WHERE id = ?`, id)
	var (
		admin Admin
		email sql.NullString
	)
	err := row.Scan(&admin.ID, &admin.Name, &email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find admin: %w", err)
	}
	admin.Email = email.String
	return &admin, nil
}

// FindProfile fetches a profile by id. A missing profile returns (nil, nil).
func (s *Store) FindProfile(ctx context.Context, id string) (*Profile, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, name, quota_cap, auto_approve, targets_json FROM profiles WHERE id = ?`,
		id,
	)
	var (
		profile     Profile
		autoApprove int
		targetsJSON string
	)
	err := row.Scan(&profile.ID, &profile.Name, &profile.QuotaCap, &autoApprove, &targetsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find profile: %w", err)
	}
	profile.AutoApprove = autoApprove != 0
	if err := json.Unmarshal([]byte(targetsJSON), &profile.EnabledTargets); err != nil {
		return nil, fmt.Errorf("unmarshal profile targets: %w", err)
	}
	return &profile, nil
}

// ListProfiles returns every stored profile.
func (s *Store) ListProfiles(ctx context.Context) ([]*Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, quota_cap, auto_approve, targets_json FROM profiles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*Profile
	for rows.Next() {
		var (
			profile     Profile
			autoApprove int
			targetsJSON string
		)
		if err := rows.Scan(&profile.ID, &profile.Name, &profile.QuotaCap, &autoApprove, &targetsJSON); err != nil {
			return nil, err
		}
		profile.AutoApprove = autoApprove != 0
		if err := json.Unmarshal([]byte(targetsJSON), &profile.EnabledTargets); err != nil {
			return nil, fmt.Errorf("unmarshal profile targets: %w", err)
		}
		profiles = append(profiles, &profile)
	}
	return profiles, rows.Err()
}

// IncrementQuota bumps a user's quota count by one and returns the new
// count. The update and read happen in one statement so concurrent
// increments never lose a count.
func (s *Store) IncrementQuota(ctx context.Context, userID string) (int, error) {
	row := s.db.QueryRowContext(
		ctx,
		`UPDATE users SET quota_count = quota_count + 1 WHERE id = ? RETURNING quota_count`,
		userID,
	)
	var count int
	err := row.Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("increment quota: %w", err)
	}
	return count, nil
}

// UpsertUser creates or replaces a user record.
func (s *Store) UpsertUser(ctx context.Context, user *User) error {
	if user == nil {
		return errors.New("user is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (id, name, email, profile_id, quota_count)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            email = excluded.email,
            profile_id = excluded.profile_id,
            quota_count = excluded.quota_count`,
		user.ID,
		user.Name,
		nullableString(user.Email),
		nullableString(user.ProfileID),
		user.QuotaCount,
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpsertAdmin creates or replaces an admin record.
func (s *Store) UpsertAdmin(ctx context.Context, admin *Admin) error {
	if admin == nil {
		return errors.New("admin is nil")
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO admins (id, name, email) VALUES (?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		admin.ID,
		admin.Name,
		nullableString(admin.Email),
	)
	if err != nil {
		return fmt.Errorf("upsert admin: %w", err)
	}
	return nil
}

// UpsertProfile creates or replaces a profile record.
func (s *Store) UpsertProfile(ctx context.Context, profile *Profile) error {
	if profile == nil {
		return errors.New("profile is nil")
	}
	targets := profile.EnabledTargets
	if targets == nil {
		targets = map[ContentClass]map[string]bool{}
	}
	targetsJSON, err := json.Marshal(targets)
	if err != nil {
		return fmt.Errorf("marshal profile targets: %w", err)
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO profiles (id, name, quota_cap, auto_approve, targets_json)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (id) DO UPDATE SET
            name = excluded.name,
            quota_cap = excluded.quota_cap,
            auto_approve = excluded.auto_approve,
            targets_json = excluded.targets_json`,
		profile.ID,
		profile.Name,
		profile.QuotaCap,
		boolToInt(profile.AutoApprove),
		string(targetsJSON),
	)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
