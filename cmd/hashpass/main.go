package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/xavierca1/leadboard/internal/entity"
	"github.com/xavierca1/leadboard/internal/infra/auth"
)

// hashpass imprime o hash bcrypt de uma senha lida do stdin. Com -file e
// -user também adiciona ou substitui a conta no arquivo de usuários.
func main() {
	file := flag.String("file", "", "users file to update")
	username := flag.String("user", "", "account name to write into -file")
	role := flag.String("role", auth.RoleAdmin, "account role")
	flag.Parse()

	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Fatalf("❌ reading password: %v", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		log.Fatal("❌ empty password")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	if *file == "" {
		fmt.Println(hash)
		return
	}
	if *username == "" {
		log.Fatal("❌ -user is required with -file")
	}

	users := auth.LoadUsers(*file)
	users.Put(entity.User{Username: *username, PasswordHash: hash, Role: *role})
	if err := users.Save(*file); err != nil {
		log.Fatalf("❌ %v", err)
	}
	fmt.Printf("✅ %s saved to %s\n", *username, *file)
}
