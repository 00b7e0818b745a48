//go:build ignore
// +build ignore

// Генерация Argon2id-хеша пароля админки движка экономики.
//
//	go run scripts/generate_hash.go <пароль>
//
// Вывод кладётся в переменную окружения ADMIN_PASSWORD_HASH
// (см. internal/config). Параметры должны совпадать с проверкой
// в internal/features/admin.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id, те же, что ожидает admin.VerifyPassword.
const (
	memory      uint32 = 65536 // 64 MB
	iterations  uint32 = 3
	parallelism uint8  = 2
	keyLength   uint32 = 32
	saltLength         = 16
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Использование: go run scripts/generate_hash.go <пароль>")
		os.Exit(1)
	}
	password := os.Args[1]

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		fmt.Printf("Ошибка генерации соли: %v\n", err)
		os.Exit(1)
	}

	hash := argon2.IDKey([]byte(password), salt, iterations, memory, parallelism, keyLength)

	result := fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory, iterations, parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash))

	fmt.Println("ADMIN_PASSWORD_HASH:")
	fmt.Println(result)
}
