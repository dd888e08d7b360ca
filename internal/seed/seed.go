// Package seed loads initial site content and assigns roles from the command line.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"techlam/internal/content"
	"techlam/internal/model"
	"techlam/internal/repository"
	"techlam/internal/service"
)

// Document is the seed file format.
type Document struct {
	ContactInfo *content.ContactFields  `json:"contact_info"`
	Projects    []content.ProjectFields `json:"projects"`
}

// Result counts what Apply changed.
type Result struct {
	Created        int
	Updated        int
	ContactUpdated bool
}

// Load reads a Document from an http(s) URL or a local path.
func Load(ctx context.Context, client *http.Client, source string) (*Document, error) {
	var body io.ReadCloser
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", source, err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetch %s: status code %d", source, resp.StatusCode)
		}
		body = resp.Body
	} else {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open seed file: %w", err)
		}
		body = f
	}
	defer body.Close()

	var doc Document
	if err := json.NewDecoder(body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse seed document: %w", err)
	}
	return &doc, nil
}

// Apply creates projects whose title is new and replaces the fields of those that exist.
// Contact info is upserted when present.
func Apply(ctx context.Context, projects service.ProjectService, contact service.ContactService, doc *Document) (Result, error) {
	var res Result

	existing, err := projects.List(ctx, repository.ProjectFilter{})
	if err != nil {
		return res, err
	}
	byTitle := make(map[string]uuid.UUID, len(existing))
	for _, p := range existing {
		byTitle[strings.ToLower(p.Title)] = p.ID
	}

	for i, fields := range doc.Projects {
		key := strings.ToLower(strings.TrimSpace(fields.Title))
		if id, ok := byTitle[key]; ok {
			if _, err := projects.Update(ctx, id, fields); err != nil {
				return res, fmt.Errorf("update project %d (%q): %w", i, fields.Title, err)
			}
			res.Updated++
			continue
		}
		created, err := projects.Create(ctx, fields, uuid.Nil)
		if err != nil {
			return res, fmt.Errorf("create project %d (%q): %w", i, fields.Title, err)
		}
		byTitle[key] = created.ID
		res.Created++
	}

	if doc.ContactInfo != nil {
		if _, err := contact.Upsert(ctx, *doc.ContactInfo, uuid.Nil); err != nil {
			return res, fmt.Errorf("upsert contact info: %w", err)
		}
		res.ContactUpdated = true
	}
	return res, nil
}

// GrantRole gives the user registered under email the role. RoleNone removes any role.
func GrantRole(ctx context.Context, users repository.UserRepository, roles repository.RoleRepository, email string, role model.Role) error {
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("no user registered with %s", email)
		}
		return fmt.Errorf("find user: %w", err)
	}
	if role == model.RoleNone {
		return roles.Remove(ctx, user.ID)
	}
	return roles.Assign(ctx, user.ID, role)
}

// Account is a registered user together with the role resolved for them.
type Account struct {
	Email     string
	Verified  bool
	Role      model.Role
	CreatedAt time.Time
}

// Users lists every registered account, oldest first. Users without a role row report RoleNone.
func Users(ctx context.Context, users repository.UserRepository, roles repository.RoleRepository) ([]Account, error) {
	list, err := users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	accounts := make([]Account, 0, len(list))
	for _, u := range list {
		role := model.RoleNone
		row, err := roles.FindByUserID(ctx, u.ID)
		switch {
		case err == nil:
			role = row.Role
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return nil, fmt.Errorf("find role of %s: %w", u.Email, err)
		}
		accounts = append(accounts, Account{
			Email:     u.Email,
			Verified:  u.EmailVerified,
			Role:      role,
			CreatedAt: u.CreatedAt,
		})
	}
	return accounts, nil
}
