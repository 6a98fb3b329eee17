package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		// Librarian: full access, including the loans:write permission that
		// gates marking returns and approving renewals.
		_, err := db.Exec(`INSERT INTO roles (name, is_system) VALUES ('librarian', TRUE)`)
		if err != nil {
			return errors.WithStack(err)
		}

		var librarianRoleID int
		err = db.QueryRow(`SELECT id FROM roles WHERE name = 'librarian'`).Scan(&librarianRoleID)
		if err != nil {
			return errors.WithStack(err)
		}

		librarianResources := []string{"catalog", "inventory", "loans", "users"}
		operations := []string{"read", "write"}

		for _, resource := range librarianResources {
			for _, operation := range operations {
				_, err = db.Exec(`INSERT INTO permissions (role_id, resource, operation) VALUES (?, ?, ?)`,
					librarianRoleID, resource, operation)
				if err != nil {
					return errors.WithStack(err)
				}
			}
		}

		// Member: browse the catalog only. Members can always see their own
		// loans without any extra permission.
		_, err = db.Exec(`INSERT INTO roles (name, is_system) VALUES ('member', TRUE)`)
		if err != nil {
			return errors.WithStack(err)
		}

		var memberRoleID int
		err = db.QueryRow(`SELECT id FROM roles WHERE name = 'member'`).Scan(&memberRoleID)
		if err != nil {
			return errors.WithStack(err)
		}

		_, err = db.Exec(`INSERT INTO permissions (role_id, resource, operation) VALUES (?, 'catalog', 'read')`,
			memberRoleID)
		return errors.WithStack(err)
	}

	down := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`DELETE FROM permissions WHERE role_id IN (SELECT id FROM roles WHERE name IN ('librarian', 'member'))`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`DELETE FROM roles WHERE name IN ('librarian', 'member')`)
		return errors.WithStack(err)
	}

	Migrations.MustRegister(up, down)
}
