package migrations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

func init() {
	up := func(_ context.Context, db *bun.DB) error {
		_, err := db.Exec(`
			CREATE TABLE roles (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				name TEXT NOT NULL,
				is_system BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_roles_name ON roles (name)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE permissions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				role_id INTEGER REFERENCES roles (id) ON DELETE CASCADE NOT NULL,
				resource TEXT NOT NULL,
				operation TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_permissions_role_resource_operation ON permissions (role_id, resource, operation)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE users (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				email TEXT NOT NULL,
				name TEXT NOT NULL,
				password_hash TEXT NOT NULL,
				role_id INTEGER REFERENCES roles (id) NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_users_email ON users (email COLLATE NOCASE)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE otps (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id) ON DELETE CASCADE NOT NULL,
				code_hash TEXT NOT NULL,
				expires_at TIMESTAMPTZ NOT NULL,
				consumed_at TIMESTAMPTZ
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_otps_user_id ON otps (user_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE stories (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				author_id INTEGER REFERENCES users (id) NOT NULL,
				title TEXT,
				content TEXT NOT NULL DEFAULT '',
				image_url TEXT,
				audio_url TEXT,
				audio_duration REAL,
				is_complete BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_stories_author_id ON stories (author_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_stories_is_complete ON stories (is_complete)`)
		if err != nil {
			return errors.WithStack(err)
		}
		// One tracker per story; the row is reset, never duplicated.
		_, err = db.Exec(`
			CREATE TABLE story_chunk_trackers (
				story_id INTEGER PRIMARY KEY REFERENCES stories (id) ON DELETE CASCADE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				content TEXT NOT NULL DEFAULT '',
				chunk_index INTEGER NOT NULL DEFAULT 0,
				received_chunks INTEGER NOT NULL DEFAULT 0,
				total_chunks INTEGER NOT NULL DEFAULT 1,
				is_complete BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE comments (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				story_id INTEGER REFERENCES stories (id) ON DELETE CASCADE NOT NULL,
				author_id INTEGER REFERENCES users (id) NOT NULL,
				body TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_comments_story_id ON comments (story_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE likes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				story_id INTEGER REFERENCES stories (id) ON DELETE CASCADE NOT NULL,
				user_id INTEGER REFERENCES users (id) NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_likes_story_id_user_id ON likes (story_id, user_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE blogs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				author_id INTEGER REFERENCES users (id) NOT NULL,
				title TEXT NOT NULL,
				body TEXT NOT NULL,
				is_published BOOLEAN NOT NULL DEFAULT FALSE
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_blogs_author_id ON blogs (author_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE quizzes (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				created_by INTEGER REFERENCES users (id) NOT NULL,
				title TEXT NOT NULL,
				description TEXT
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE quiz_questions (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				quiz_id INTEGER REFERENCES quizzes (id) ON DELETE CASCADE NOT NULL,
				sequence INTEGER NOT NULL,
				prompt TEXT NOT NULL,
				options TEXT NOT NULL,
				correct_option INTEGER NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE INDEX ix_quiz_questions_quiz_id ON quiz_questions (quiz_id)`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE quiz_attempts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				quiz_id INTEGER REFERENCES quizzes (id) ON DELETE CASCADE NOT NULL,
				user_id INTEGER REFERENCES users (id) NOT NULL,
				score INTEGER NOT NULL,
				total INTEGER NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`
			CREATE TABLE donations (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
				user_id INTEGER REFERENCES users (id),
				amount_minor BIGINT NOT NULL,
				currency TEXT NOT NULL,
				gateway_order_id TEXT NOT NULL,
				gateway_payment_id TEXT,
				status TEXT NOT NULL
			)
`)
		if err != nil {
			return errors.WithStack(err)
		}
		_, err = db.Exec(`CREATE UNIQUE INDEX ux_donations_gateway_order_id ON donations (gateway_order_id)`)
		if err != nil {
			return errors.WithStack(err)
		}

		return seedRoles(db)
	}

	down := func(_ context.Context, db *bun.DB) error {
		tables := []string{
			"donations",
			"quiz_attempts",
			"quiz_questions",
			"quizzes",
			"blogs",
			"likes",
			"comments",
			"story_chunk_trackers",
			"stories",
			"otps",
			"users",
			"permissions",
			"roles",
		}
		for _, table := range tables {
			_, err := db.Exec("DROP TABLE IF EXISTS " + table)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	}

	Migrations.MustRegister(up, down)
}

// seedRoles inserts the four platform roles and their permission grants.
func seedRoles(db *bun.DB) error {
	grants := map[string][][2]string{
		"student": {
			{"stories", "read"}, {"stories", "write"},
			{"blogs", "read"},
			{"quizzes", "read"}, {"quizzes", "write"},
		},
		"parent": {
			{"stories", "read"}, {"stories", "write"},
			{"blogs", "read"},
			{"quizzes", "read"}, {"quizzes", "write"},
		},
		"therapist": {
			{"stories", "read"}, {"stories", "write"},
			{"blogs", "read"}, {"blogs", "write"},
			{"quizzes", "read"}, {"quizzes", "write"},
		},
		"admin": {
			{"stories", "read"}, {"stories", "write"},
			{"blogs", "read"}, {"blogs", "write"},
			{"quizzes", "read"}, {"quizzes", "write"},
			{"donations", "read"}, {"donations", "write"},
			{"stats", "read"},
			{"users", "read"}, {"users", "write"},
		},
	}

	for _, name := range []string{"student", "parent", "therapist", "admin"} {
		res, err := db.Exec(`INSERT INTO roles (name, is_system) VALUES (?, TRUE)`, name)
		if err != nil {
			return errors.WithStack(err)
		}
		roleID, err := res.LastInsertId()
		if err != nil {
			return errors.WithStack(err)
		}
		for _, grant := range grants[name] {
			_, err = db.Exec(
				`INSERT INTO permissions (role_id, resource, operation) VALUES (?, ?, ?)`,
				roleID, grant[0], grant[1],
			)
			if err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return nil
}
