// Command admintoken signs an ops API bearer token with the configured private key.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-rolegate/internal/config"
	"github.com/go-rolegate/internal/domain"
	jwtinfra "github.com/go-rolegate/internal/infrastructure/jwt"
	"github.com/go-rolegate/internal/pkg/validate"
	"github.com/joho/godotenv"
)

type options struct {
	Subject string        `validate:"required"`
	Role    string        `validate:"required,oneof=admin viewer"`
	TTL     time.Duration `validate:"min=0"`
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.Subject, "sub", "", "operator name written to the sub claim")
	flag.StringVar(&opts.Role, "role", domain.OperatorRoleAdmin, "operator role: admin or viewer")
	flag.DurationVar(&opts.TTL, "ttl", 0, "token lifetime (default JWT_EXPIRY_HOURS)")
	flag.Parse()

	if err := validate.Struct(opts); err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Load()
	if opts.TTL > 0 {
		cfg.JWTExpiry = opts.TTL
	}
	provider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("load keys: %v", err)
	}
	token, err := provider.Sign(opts.Subject, opts.Role)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(token)
}
