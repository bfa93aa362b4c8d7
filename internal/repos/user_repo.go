package repos

import (
	"database/sql"
	"errors"

	"loudim/internal/domain"

	"github.com/jmoiron/sqlx"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

const userCols = `id, username, password_hash, role, full_name, email, phone`

func (r *UserRepo) ByUsername(username string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE username=?`, username)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(id int64) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List() ([]domain.User, error) {
	var out []domain.User
	err := r.DB.Select(&out, `SELECT `+userCols+` FROM users ORDER BY username`)
	return out, err
}

func (r *UserRepo) Create(u domain.User) (int64, error) {
	res, err := r.DB.Exec(`
	  INSERT INTO users(username,password_hash,role,full_name,email,phone)
	  VALUES(?,?,?,?,?,?)
	`, u.Username, u.Hash, u.Role, u.FullName, u.Email, u.Phone)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites the account; an empty Hash keeps the stored password.
func (r *UserRepo) Update(u domain.User) error {
	if u.Hash != "" {
		_, err := r.DB.Exec(`
		  UPDATE users SET username=?, password_hash=?, role=?, full_name=?,
		    email=?, phone=?, updated_at=CURRENT_TIMESTAMP
		  WHERE id=?
		`, u.Username, u.Hash, u.Role, u.FullName, u.Email, u.Phone, u.ID)
		return err
	}
	_, err := r.DB.Exec(`
	  UPDATE users SET username=?, role=?, full_name=?, email=?, phone=?,
	    updated_at=CURRENT_TIMESTAMP
	  WHERE id=?
	`, u.Username, u.Role, u.FullName, u.Email, u.Phone, u.ID)
	return err
}

func (r *UserRepo) Delete(id int64) error {
	tx, err := r.DB.Beginx()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM sessions WHERE user_id=?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM users WHERE id=?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *UserRepo) BindSession(sid string, userID int64) error {
	_, err := r.DB.Exec(`
	  INSERT INTO sessions(id,user_id,last_seen)
	  VALUES(?,?,CURRENT_TIMESTAMP)
	  ON CONFLICT(id) DO UPDATE SET user_id=excluded.user_id,last_seen=CURRENT_TIMESTAMP
	`, sid, userID)
	return err
}

func (r *UserRepo) SessionUser(sid string) (*domain.User, error) {
	var u domain.User
	err := r.DB.Get(&u, `
	  SELECT u.id,u.username,u.password_hash,u.role,u.full_name,u.email,u.phone
	  FROM sessions s
	  JOIN users u ON u.id=s.user_id
	  WHERE s.id=?`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UnbindSession(sid string) error {
	_, err := r.DB.Exec(`UPDATE sessions SET user_id=NULL,last_seen=CURRENT_TIMESTAMP WHERE id=?`, sid)
	return err
}
