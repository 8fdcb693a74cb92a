// Copyright (C) 2026 Lexicon Legal AI (dev@lexiconlegal.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/LexiconLegalAI/LexiconCore/cmd/lexctl/config"
	"github.com/LexiconLegalAI/LexiconCore/services/orchestrator/datatypes"
	"github.com/LexiconLegalAI/LexiconCore/services/risk"
)

var httpClient = &http.Client{
	Timeout: time.Minute * 4,
}

var (
	rootCmd = &cobra.Command{
		Use:   "lexctl",
		Short: "A CLI for the Lexicon contract pipeline",
		Long: `lexctl submits contracts to the Lexicon pipeline service for
compliance review and requests new contract drafts.`,
	}

	checkCmd = &cobra.Command{
		Use:   "check [file]",
		Short: "Runs a compliance review over a contract file",
		Long:  `Reads a contract from disk, sends it to the pipeline service, and prints per-clause findings with the aggregate risk score.`,
		Args:  cobra.ExactArgs(1),
		Run:   runCheckCommand,
	}
	checkJurisdiction string
	checkVerbose      bool

	draftCmd = &cobra.Command{
		Use:   "draft [requirements...]",
		Short: "Drafts a contract from a plain-language description",
		Args:  cobra.MinimumNArgs(1),
		Run:   runDraftCommand,
	}
	draftType         string
	draftJurisdiction string
	draftParties      []string
	draftOutput       string

	healthCmd = &cobra.Command{
		Use:   "health",
		Short: "Checks that the pipeline service is reachable",
		Run:   runHealthCommand,
	}
)

func init() {
	checkCmd.Flags().StringVar(&checkJurisdiction, "jurisdiction", "",
		"Jurisdiction hint, e.g. 'Maharashtra' (skips LLM jurisdiction detection)")
	checkCmd.Flags().BoolVarP(&checkVerbose, "verbose", "v", false,
		"Print the full advisory text for each finding")

	draftCmd.Flags().StringVar(&draftType, "type", "", "Contract type, e.g. 'nda', 'service'")
	draftCmd.Flags().StringVar(&draftJurisdiction, "jurisdiction", "", "Governing jurisdiction")
	draftCmd.Flags().StringSliceVar(&draftParties, "party", nil, "Contract party (repeatable)")
	draftCmd.Flags().StringVarP(&draftOutput, "output", "o", "", "Write the contract to a file instead of stdout")

	rootCmd.AddCommand(checkCmd, draftCmd, healthCmd)
}

func baseURL() string {
	return fmt.Sprintf("http://%s:%d", config.Global.Server.Host, config.Global.Server.Port)
}

func runCheckCommand(cmd *cobra.Command, args []string) {
	contractText, err := os.ReadFile(args[0])
	if err != nil {
		log.Fatalf("Could not read the contract file: %v", err)
	}

	metadata := map[string]any{}
	jurisdiction := checkJurisdiction
	if jurisdiction == "" {
		jurisdiction = config.Global.Defaults.Jurisdiction
	}
	if jurisdiction != "" {
		metadata["jurisdiction"] = jurisdiction
	}

	fmt.Printf("Checking %s\n", args[0])
	fmt.Println("---")

	var response datatypes.ComplianceCheckResponse
	err = postJSON("/v1/compliance/check", datatypes.ComplianceCheckRequest{
		ContractText: string(contractText),
		Metadata:     metadata,
	}, &response)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	state := response.State
	fmt.Printf("Jurisdiction: %s\n", state.Jurisdiction["country"])
	fmt.Printf("Clauses analyzed: %d\n\n", len(state.Clauses))

	for _, clause := range state.Clauses {
		finding, ok := state.ComplianceFindings[clause.ID]
		if !ok {
			continue
		}
		fmt.Printf("[%s] %s (%s)\n", strings.ToUpper(finding.RiskLevel), clause.ID, clause.Type)
		fmt.Printf("  %s\n", finding.Reason)
		if checkVerbose {
			advisory := risk.SummaryText(risk.Level(finding.RiskLevel), finding.SuggestedFix)
			fmt.Printf("  %s\n", strings.ReplaceAll(advisory, "\n", "\n  "))
		} else if finding.SuggestedFix != "" {
			fmt.Printf("  Fix: %s\n", finding.SuggestedFix)
		}
		for _, citation := range finding.Citations {
			fmt.Printf("  Citation: %s\n", citation)
		}
		fmt.Println()
	}

	if state.RiskSummary != nil {
		fmt.Printf("Overall risk: %s (score %d/100, %d high, %d medium)\n",
			state.RiskSummary.RiskLevel,
			state.RiskSummary.OverallScore,
			state.RiskSummary.Breakdown.High,
			state.RiskSummary.Breakdown.Medium)
	}
}

func runDraftCommand(cmd *cobra.Command, args []string) {
	requirements := strings.Join(args, " ")

	contractType := draftType
	if contractType == "" {
		contractType = config.Global.Defaults.ContractType
	}
	jurisdiction := draftJurisdiction
	if jurisdiction == "" {
		jurisdiction = config.Global.Defaults.Jurisdiction
	}

	fmt.Printf("Drafting: %s\n", requirements)
	fmt.Println("---")

	var response datatypes.DraftContractResponse
	err := postJSON("/v1/drafting/draft", datatypes.DraftContractRequest{
		Requirements: requirements,
		ContractType: contractType,
		Jurisdiction: jurisdiction,
		Parties:      draftParties,
	}, &response)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	if draftOutput != "" {
		if err := os.WriteFile(draftOutput, []byte(response.Contract), 0644); err != nil {
			log.Fatalf("Could not write the contract: %v", err)
		}
		fmt.Printf("Contract written to %s (%d clauses)\n", draftOutput, len(response.State.DraftedClauses))
		return
	}

	fmt.Println(response.Contract)
	if quality, ok := response.State.Metadata["review_quality"]; ok {
		fmt.Printf("\n(Self-review quality: %v)\n", quality)
	}
}

func runHealthCommand(cmd *cobra.Command, args []string) {
	resp, err := httpClient.Get(baseURL() + "/healthz")
	if err != nil {
		log.Fatalf("Pipeline service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Fatalf("Pipeline service unhealthy: status %d", resp.StatusCode)
	}
	fmt.Println("Pipeline service is healthy")
}

// postJSON sends a request body to the pipeline service and decodes the
// response. Non-2xx statuses surface the server's error message.
func postJSON(path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal the request: %w", err)
	}

	resp, err := httpClient.Post(baseURL()+path, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read the response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var serverErr struct {
			Error  string `json:"error"`
			Reason string `json:"reason"`
		}
		if json.Unmarshal(data, &serverErr) == nil && serverErr.Error != "" {
			if serverErr.Reason != "" {
				return fmt.Errorf("%s: %s", serverErr.Error, serverErr.Reason)
			}
			return fmt.Errorf("%s", serverErr.Error)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode the response: %w", err)
	}
	return nil
}
