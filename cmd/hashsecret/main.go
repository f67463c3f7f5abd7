package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alexedwards/argon2id"
	log "github.com/sirupsen/logrus"
)

var clientID = flag.String("client-id", "", "service account id; when set the output is a ready service_accounts entry")

// hashsecret reads a service-account secret from stdin and prints its argon2id hash.
func main() {
	flag.Parse()

	secret, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && secret == "" {
		log.WithError(err).Fatal("error reading secret from stdin")
	}
	secret = strings.TrimRight(secret, "\r\n")
	if secret == "" {
		log.Fatal("empty secret")
	}

	hash, err := argon2id.CreateHash(secret, argon2id.DefaultParams)
	if err != nil {
		log.WithError(err).Fatal("error hashing secret")
	}

	if *clientID != "" {
		fmt.Printf("%s:%s\n", *clientID, hash)
		return
	}
	fmt.Println(hash)
}
