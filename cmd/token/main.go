// Package main provides a CLI for issuing access tokens and inspecting the
// data permissions they carry.
// Usage:
//
//	token issue --user 1 --name admin [--org 1] [--roles admin,staff]
//	token roles --user 1
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"easyadmin/internal/config"
	appctx "easyadmin/internal/core/context"
	"easyadmin/internal/domain/auth"
	"easyadmin/internal/infrastructure/storage/postgres"
	"easyadmin/internal/infrastructure/storage/postgres/auth_repo"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "issue":
		issueToken(cfg)
	case "roles":
		listRoles(ctx, cfg)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`easyadmin token CLI

Usage:
  token <command> [options]

Commands:
  issue     Sign an access token for a user
  roles     Show the roles and data scopes of a user
  help      Show this help

Environment Variables:
  DATABASE_URL    Connection string (required)
  JWT_SECRET      Signing secret (required)
  JWT_ISSUER      Token issuer (default easyadmin)
  JWT_ACCESS_TTL  Token lifetime (default 15m)

Examples:
  token issue --user 1 --name admin --org 1
  token roles --user 1`)
}

// parseFlags reads "--key value" pairs after the command.
func parseFlags() map[string]string {
	flags := make(map[string]string)
	for i := 2; i < len(os.Args); i++ {
		if strings.HasPrefix(os.Args[i], "--") && i+1 < len(os.Args) {
			flags[strings.TrimPrefix(os.Args[i], "--")] = os.Args[i+1]
			i++
		}
	}
	return flags
}

func mustUserID(flags map[string]string) int64 {
	userID, err := strconv.ParseInt(flags["user"], 10, 64)
	if err != nil || userID <= 0 {
		fmt.Println("Error: --user must be a positive user id")
		os.Exit(1)
	}
	return userID
}

func issueToken(cfg *config.Config) {
	if err := cfg.RequireJWTSecret(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	flags := parseFlags()

	user := appctx.UserContext{
		UserID:   mustUserID(flags),
		UserName: flags["name"],
	}
	if org := flags["org"]; org != "" {
		orgID, err := strconv.ParseInt(org, 10, 64)
		if err != nil {
			fmt.Printf("Error: invalid --org %q\n", org)
			os.Exit(1)
		}
		user.OrgID = orgID
	}
	if roles := flags["roles"]; roles != "" {
		user.Roles = strings.Split(roles, ",")
	}

	jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
	jwtConfig.Issuer = cfg.JWTIssuer
	jwtConfig.AccessTokenTTL = cfg.AccessTTL

	token, expiresAt, err := auth.NewJWTService(jwtConfig).GenerateAccessToken(user)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
	fmt.Fprintf(os.Stderr, "expires at %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
}

func listRoles(ctx context.Context, cfg *config.Config) {
	userID := mustUserID(parseFlags())

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	roles, err := auth_repo.NewRoleRepo(postgres.NewTxManager(pool)).RolesForUser(ctx, userID)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if len(roles) == 0 {
		fmt.Println("No enabled roles: the user sees no owned rows.")
		return
	}

	fmt.Printf("%-6s %-12s %-16s %s\n", "ID", "CODE", "SCOPE", "CUSTOM ORGS")
	for _, r := range roles {
		fmt.Printf("%-6d %-12s %-16s %s\n", r.ID, r.Code, r.DataScope, r.CustomOrgIDs)
	}
}
