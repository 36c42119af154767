package repositories

import (
	"database/sql"
	"time"

	"accounthub/internal/models"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByPhone(phone string) (*models.User, error)
	Update(user *models.User) error
	Delete(id int) error
	List(limit, offset int) ([]*models.User, error)
	GetCount() (int, error)

	// account state
	Activate(userID int) error
	UpdatePassword(userID int, passwordHash string) error
	UpdateEmail(userID int, email string) error
	UpdatePhone(userID int, phone string) error

	// refresh helpers
	UpdateRefresh(userID int, token string, expiresAt time.Time) error
	RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error)
	ClearRefresh(userID int) error
	GetByRefreshToken(token string) (*models.User, error)
}

type userRepository struct {
	DB *sql.DB
}

func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{DB: db}
}

const userColumns = `
	id, email, password_hash, role_id,
	COALESCE(phone,''), is_active, activated_at,
	refresh_token, refresh_expires_at, refresh_revoked
`

func scanUser(row *sql.Row) (*models.User, error) {
	u := &models.User{}
	var (
		activatedAt sql.NullTime
		rt          sql.NullString
		rte         sql.NullTime
		rr          sql.NullBool
	)
	err := row.Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.RoleID,
		&u.Phone, &u.IsActive, &activatedAt,
		&rt, &rte, &rr,
	)
	if err != nil {
		return nil, err
	}
	if activatedAt.Valid {
		t := activatedAt.Time
		u.ActivatedAt = &t
	}
	if rt.Valid {
		s := rt.String
		u.RefreshToken = &s
	}
	if rte.Valid {
		t := rte.Time
		u.RefreshExpiresAt = &t
	}
	if rr.Valid {
		u.RefreshRevoked = rr.Bool
	}
	return u, nil
}

func (r *userRepository) Create(user *models.User) error {
	const q = `
		INSERT INTO users (email, phone, password_hash, role_id, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	return r.DB.QueryRow(q,
		user.Email, user.Phone, user.PasswordHash, user.RoleID, user.IsActive,
	).Scan(&user.ID)
}

func (r *userRepository) GetByID(id int) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) GetByPhone(phone string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE phone = $1`, phone))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) Update(user *models.User) error {
	const q = `
		UPDATE users
		SET email=$1, phone=$2, password_hash=$3, role_id=$4, is_active=$5, activated_at=$6
		WHERE id=$7
	`
	_, err := r.DB.Exec(q,
		user.Email, user.Phone, user.PasswordHash, user.RoleID,
		user.IsActive, user.ActivatedAt, user.ID,
	)
	return err
}

func (r *userRepository) Delete(id int) error {
	_, err := r.DB.Exec(`DELETE FROM users WHERE id=$1`, id)
	return err
}

func (r *userRepository) List(limit, offset int) ([]*models.User, error) {
	const q = `
		SELECT id, email, COALESCE(phone,''), role_id, is_active, activated_at
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`
	rows, err := r.DB.Query(q, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []*models.User
	for rows.Next() {
		u := &models.User{}
		var activatedAt sql.NullTime
		if err := rows.Scan(&u.ID, &u.Email, &u.Phone, &u.RoleID, &u.IsActive, &activatedAt); err != nil {
			return nil, err
		}
		if activatedAt.Valid {
			t := activatedAt.Time
			u.ActivatedAt = &t
		}
		res = append(res, u)
	}
	return res, rows.Err()
}

func (r *userRepository) GetCount() (int, error) {
	var c int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&c)
	return c, err
}

func (r *userRepository) Activate(userID int) error {
	_, err := r.DB.Exec(`UPDATE users SET is_active=TRUE, activated_at=NOW() WHERE id=$1`, userID)
	return err
}

func (r *userRepository) UpdatePassword(userID int, passwordHash string) error {
	_, err := r.DB.Exec(`UPDATE users SET password_hash=$1 WHERE id=$2`, passwordHash, userID)
	return err
}

func (r *userRepository) UpdateEmail(userID int, email string) error {
	_, err := r.DB.Exec(`UPDATE users SET email=$1 WHERE id=$2`, email, userID)
	return err
}

func (r *userRepository) UpdatePhone(userID int, phone string) error {
	_, err := r.DB.Exec(`UPDATE users SET phone=$1 WHERE id=$2`, phone, userID)
	return err
}

// ===== refresh helpers =====

func (r *userRepository) UpdateRefresh(userID int, token string, expiresAt time.Time) error {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE id=$3
	`
	_, err := r.DB.Exec(q, token, expiresAt, userID)
	return err
}

func (r *userRepository) RotateRefresh(oldToken, newToken string, newExpiresAt time.Time) (*models.User, error) {
	const q = `
		UPDATE users
		SET refresh_token=$1, refresh_expires_at=$2, refresh_revoked=FALSE
		WHERE refresh_token=$3 AND refresh_revoked=FALSE
		RETURNING ` + userColumns
	u, err := scanUser(r.DB.QueryRow(q, newToken, newExpiresAt, oldToken))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}

func (r *userRepository) ClearRefresh(userID int) error {
	const q = `
		UPDATE users
		SET refresh_token=NULL, refresh_expires_at=NULL, refresh_revoked=TRUE
		WHERE id=$1
	`
	_, err := r.DB.Exec(q, userID)
	return err
}

func (r *userRepository) GetByRefreshToken(token string) (*models.User, error) {
	u, err := scanUser(r.DB.QueryRow(`SELECT `+userColumns+` FROM users WHERE refresh_token = $1`, token))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return u, err
}
