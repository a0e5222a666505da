// Package main is a development utility for preparing the Distimo credential
// tuple. It base64-encodes the username:password pair into the basic-auth
// token the API expects and prints a ready-to-paste distimo.keys YAML block,
// so developers can assemble a working tuple without hand-encoding values.
// Keep real production keys in the deployment secret store, not in YAML.
package main

import (
	"encoding/base64"
	"fmt"
	"log"
	"os"
)

func main() {
	if len(os.Args) != 5 {
		log.Fatalf("usage: %s <private-key> <public-key> <username> <password>", os.Args[0])
	}
	privateKey, publicKey, username, password := os.Args[1], os.Args[2], os.Args[3], os.Args[4]

	token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))

	fmt.Println("==========================================================")
	fmt.Println("Distimo Credential Tuple")
	fmt.Println("==========================================================")
	fmt.Printf("\nBasic Auth Token: %s\n", token)
	fmt.Printf("\nAuthorization Header: Basic %s\n", token)
	fmt.Println("\n==========================================================")
	fmt.Println("config.yaml:")
	fmt.Println("==========================================================")
	fmt.Printf(`
distimo:
  keys:
    - %s
    - %s
    - %s
    - %s
`, privateKey, publicKey, username, token)
	fmt.Println("==========================================================")
}
