package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/xavierca1/leadboard/internal/entity"
	"golang.org/x/crypto/bcrypt"
)

const RoleAdmin = "admin"

// UserStore é a whitelist de contas do painel, carregada de um arquivo JSON
// de objetos {"username","password_hash","role"}.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]entity.User
}

func NewUserStore(users ...entity.User) *UserStore {
	s := &UserStore{users: make(map[string]entity.User, len(users))}
	for _, u := range users {
		s.users[normalize(u.Username)] = u
	}
	return s
}

// LoadUsers nunca falha: arquivo ausente ou inválido é logado e gera um
// store vazio.
func LoadUsers(path string) *UserStore {
	s := NewUserStore()
	if path == "" {
		return s
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️ users file %s not found, no accounts loaded", path)
		} else {
			log.Printf("❌ reading users file %s: %v", path, err)
		}
		return s
	}
	var users []entity.User
	if err := json.Unmarshal(data, &users); err != nil {
		log.Printf("❌ users file %s is not valid JSON: %v", path, err)
		return s
	}
	for _, u := range users {
		if strings.TrimSpace(u.Username) == "" || u.PasswordHash == "" {
			continue
		}
		s.users[normalize(u.Username)] = u
	}
	log.Printf("🔐 loaded %d account(s) from %s", len(s.users), path)
	return s
}

// Bootstrap adiciona uma conta a partir de credenciais em texto, a menos que o
// usuário já exista. Senha vazia é ignorada.
func (s *UserStore) Bootstrap(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[normalize(username)]; ok {
		return nil
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	s.users[normalize(username)] = entity.User{Username: username, PasswordHash: hash, Role: RoleAdmin}
	return nil
}

func (s *UserStore) Put(u entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[normalize(u.Username)] = u
}

func (s *UserStore) Lookup(username string) (entity.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[normalize(username)]
	return u, ok
}

// Verify compara a senha com o hash armazenado.
func (s *UserStore) Verify(username, password string) (*entity.User, bool) {
	u, ok := s.Lookup(username)
	if !ok {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, false
	}
	return &u, true
}

func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Save grava o store no formato do arquivo, ordenado por usuário.
func (s *UserStore) Save(path string) error {
	s.mu.RLock()
	users := make([]entity.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })

	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
		return fmt.Errorf("write users file: %w", err)
	}
	return nil
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
