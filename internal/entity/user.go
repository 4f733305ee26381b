package entity

// User é uma conta do painel. PasswordHash é um hash bcrypt.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash,omitempty"`
	Role         string `json:"role"`
}
