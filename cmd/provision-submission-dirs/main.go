// Command provision-submission-dirs creates the submission directories of the given assignments.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"assignment-management-api/config"
	"assignment-management-api/services"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, falling back to environment variables")
	}

	var idsRaw, root string
	flag.StringVar(&idsRaw, "assignment-ids", "", "comma-separated list of assignment IDs")
	flag.StringVar(&root, "root", os.Getenv("SUBMISSION_ROOT"), "submission root directory (default ./submissions)")
	flag.Parse()

	if root == "" {
		root = "./submissions"
	}

	var ids []int
	for _, part := range strings.Split(idsRaw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			log.Fatalf("invalid assignment id '%s'", part)
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		log.Fatal("-assignment-ids is empty. Pass at least one assignment id.")
	}

	config.InitDB()
	svc := services.NewAssignmentService(services.NewGormStore(config.DB), nil)
	ctx := context.Background()

	var (
		succeeded int
		failed    []string
	)
	for _, id := range ids {
		dir, existed, err := svc.EnsureSubmissionDirectory(ctx, root, id)
		if err != nil {
			log.Printf("assignment %d: %v", id, err)
			failed = append(failed, formatFailureLabel(id, err.Error()))
			continue
		}
		if existed {
			log.Printf("assignment %d: directory already existed at %s", id, dir)
		} else {
			log.Printf("assignment %d: created %s", id, dir)
		}
		succeeded++
	}

	if len(failed) > 0 {
		log.Fatalf("completed with errors. successful: %d, failed: %s", succeeded, strings.Join(failed, ", "))
	}
	log.Printf("Provisioned %d submission directory(ies)", succeeded)
}

func formatFailureLabel(id int, reason string) string {
	return "assignment_id=" + strconv.Itoa(id) + " (" + reason + ")"
}
