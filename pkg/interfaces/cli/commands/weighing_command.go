package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/application/services/session"
	"github.com/vsinha/packplan/pkg/domain/entities"
	"github.com/vsinha/packplan/pkg/domain/repositories"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/xlsx"
	"github.com/vsinha/packplan/pkg/interfaces/cli/output"
)

// WeighingCommand reconciles weighing records against a plan and optionally submits them
type WeighingCommand struct {
	config Config
	base   session.Config
	repo   repositories.SubmissionRepository
}

// NewWeighingCommand creates a weighing command
func NewWeighingCommand(config Config, base session.Config, repo repositories.SubmissionRepository) *WeighingCommand {
	return &WeighingCommand{config: config, base: base, repo: repo}
}

// Execute runs the weighing command
func (c *WeighingCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if err := c.config.validateFiles(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	loader := csv.NewLoader()
	base, err := c.config.withCatalog(loader, c.base)
	if err != nil {
		return err
	}

	startTime := time.Now()
	plan, err := c.loadPlan(ctx, loader, base.Terms.ContractID)
	if err != nil {
		return err
	}
	records, err := c.loadRecords(ctx, loader, base.Terms.ContractID)
	if err != nil {
		return err
	}
	s, err := session.NewWeighingSession(base, plan, records)
	if err != nil {
		return err
	}

	if c.config.MatchFile != "" {
		input, err := xlsx.LoadShipmentMatch(c.config.MatchFile, c.config.MatchGoodID)
		if err != nil {
			return fmt.Errorf("error loading shipment match: %w", err)
		}
		match, err := input.ToMatch()
		if err != nil {
			return fmt.Errorf("error converting shipment match: %w", err)
		}
		res, err := s.ApplyShipmentMatch(match)
		if err != nil {
			return fmt.Errorf("error applying shipment match: %w", err)
		}
		if c.config.Verbose {
			fmt.Printf("Shipment match: %d removed, %d inserted\n", res.Removed, len(res.Inserted))
		}
	}
	s.Flush()

	result := output.Result{}
	var submitErr error
	if c.config.Submit {
		ids, err := s.Submit(ctx, c.repo)
		if err != nil {
			submitErr = fmt.Errorf("weighing not submitted: %w", err)
		} else {
			result.Submitted = make(map[string]int64, len(ids))
			for k, id := range ids {
				result.Submitted[k.String()] = int64(id)
			}
		}
	}
	eval := s.Evaluation()
	result.Weighing = &eval

	if err := output.Generate(result, c.config.output(time.Since(startTime))); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return submitErr
}

func (c *WeighingCommand) loadPlan(ctx context.Context, loader *csv.Loader, contractID int64) ([]*entities.GoodsAllocation, error) {
	if c.config.PlanFile == "" {
		stored, err := c.repo.LoadPlan(ctx, contractID)
		if err != nil {
			return nil, fmt.Errorf("error loading stored plan: %w", err)
		}
		return stored, nil
	}
	inputs, err := loader.LoadPlan(c.config.PlanFile)
	if err != nil {
		return nil, fmt.Errorf("error loading plan: %w", err)
	}
	return dto.AllocationsFromInputs(inputs)
}

func (c *WeighingCommand) loadRecords(ctx context.Context, loader *csv.Loader, contractID int64) ([]*entities.ActualWeighingRecord, error) {
	if c.config.WeighingFile == "" {
		stored, err := c.repo.LoadWeighing(ctx, contractID)
		if err != nil {
			return nil, fmt.Errorf("error loading stored weighing records: %w", err)
		}
		return stored, nil
	}
	inputs, err := loader.LoadWeighing(c.config.WeighingFile)
	if err != nil {
		return nil, fmt.Errorf("error loading weighing records: %w", err)
	}
	return dto.RecordsFromInputs(inputs)
}

func (c *WeighingCommand) showHelp() {
	fmt.Printf(`packplan weighing - reconcile weighing records against a plan

USAGE:
    packplan weighing [-plan <file>] [-weighing <file>] [-match <xlsx> -good <id>] [-submit]

OPTIONS:
    -config <file>      Config file (default: ./configs/config.yaml or ./config.yaml)
    -plan <file>        Plan CSV; when omitted the stored plan of contract.id is loaded
    -weighing <file>    Weighing CSV; when omitted the stored records are loaded
    -match <file>       Shipment match workbook with candidates and conflicts sheets
    -good <id>          Good the shipment match candidates belong to
    -catalog <file>     Catalog CSV the commodity keys are checked against
    -submit             Store the records when every gate passes
    -output <dir>       Output directory (required for xlsx)
    -format <fmt>       Output format: text, json, xlsx (default: text)
    -verbose            Enable verbose output

weighing.csv:
    id,shipping_schedule_id,code_booking,region,supplier_id,good_id,good_type,loading_date,weight,coverage_quantity,coverage_type,transport_unit,container_number,seal_number,truck_number,unloading_port,unit_price_transport,saved
    ,11,BK-1,N,7,3,A,2025-01-05,2500,,,container,MSCU1234567,S1,,Haiphong,,

match.xlsx sheets "candidates" and "conflicts":
    shipping_schedule_id,code_booking,region,supplier_id,good_type,loading_date,transport_unit,container_count
`)
}
