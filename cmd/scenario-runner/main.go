// Package main - scenario-runner
// Executable to run the end-to-end gameplay scenario suite.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/phantomguild/system-server/test"
)

func main() {
	fmt.Println("THE SYSTEM - SCENARIO TEST SUITE")
	fmt.Println("================================")

	ctx := context.Background()

	fmt.Println("\nRunning scenario: The Hunter's First Day...")
	scenario := test.NewFirstDayScenario()
	scenario.RunTest(ctx)

	results := scenario.GetResults()
	passed := 0
	failed := 0

	for _, r := range results {
		if r.Passed {
			passed++
		} else {
			failed++
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SCENARIO SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("   Passed: %d\n", passed)
	fmt.Printf("   Failed: %d\n", failed)

	if failed > 0 {
		fmt.Println("\nThe System requires recalibration")
		os.Exit(1)
	}
	fmt.Println("\nThe System is ready for deployment")
	os.Exit(0)
}
