package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/vsinha/packplan/pkg/application/dto"
	"github.com/vsinha/packplan/pkg/application/services/session"
	"github.com/vsinha/packplan/pkg/domain/repositories"
	"github.com/vsinha/packplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/packplan/pkg/interfaces/cli/output"
)

// PlanCommand evaluates an allocation plan and optionally submits it
type PlanCommand struct {
	config Config
	base   session.Config
	repo   repositories.SubmissionRepository
}

// NewPlanCommand creates a plan command. base carries the contract terms and engine settings.
func NewPlanCommand(config Config, base session.Config, repo repositories.SubmissionRepository) *PlanCommand {
	return &PlanCommand{config: config, base: base, repo: repo}
}

// Execute runs the plan command
func (c *PlanCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}
	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	loader := csv.NewLoader()
	base, err := c.config.withCatalog(loader, c.base)
	if err != nil {
		return err
	}

	startTime := time.Now()
	var s *session.PlanSession
	if c.config.PlanFile != "" {
		inputs, err := loader.LoadPlan(c.config.PlanFile)
		if err != nil {
			return fmt.Errorf("error loading plan: %w", err)
		}
		allocations, err := dto.AllocationsFromInputs(inputs)
		if err != nil {
			return fmt.Errorf("error converting plan: %w", err)
		}
		if s, err = session.NewPlanSession(base, allocations); err != nil {
			return err
		}
	} else {
		stored, err := c.repo.LoadPlan(ctx, base.Terms.ContractID)
		if err != nil {
			return fmt.Errorf("error loading stored plan: %w", err)
		}
		if s, err = session.NewPlanSession(base, stored); err != nil {
			return err
		}
	}

	if c.repo != nil {
		weighed, err := c.repo.LoadWeighing(ctx, base.Terms.ContractID)
		if err != nil {
			return fmt.Errorf("error loading stored weighing records: %w", err)
		}
		if err := s.RestoreWeighing(weighed); err != nil {
			return err
		}
	}

	result := output.Result{}
	var submitErr error
	if c.config.Submit {
		ids, err := s.Submit(ctx, c.repo)
		if err != nil {
			submitErr = fmt.Errorf("plan not submitted: %w", err)
		} else {
			result.Submitted = make(map[string]int64, len(ids))
			for k, id := range ids {
				result.Submitted[k.String()] = int64(id)
			}
		}
	}
	eval := s.Evaluation()
	result.Plan = &eval

	if err := output.Generate(result, c.config.output(time.Since(startTime))); err != nil {
		return fmt.Errorf("error generating output: %w", err)
	}
	return submitErr
}

func (c *PlanCommand) validateInputs() error {
	if c.config.PlanFile == "" && c.repo == nil {
		return fmt.Errorf("must specify -plan or a configured database")
	}
	return c.config.validateFiles()
}

func (c *PlanCommand) showHelp() {
	fmt.Printf(`packplan plan - evaluate and submit a goods allocation plan

USAGE:
    packplan plan -plan <file> [-catalog <file>] [-submit]

OPTIONS:
    -config <file>      Config file (default: ./configs/config.yaml or ./config.yaml)
    -plan <file>        Plan CSV; when omitted the stored plan of contract.id is loaded
    -catalog <file>     Catalog CSV the commodity keys are checked against
    -submit             Store the plan when every gate passes
    -output <dir>       Output directory (required for xlsx)
    -format <fmt>       Output format: text, json, xlsx (default: text)
    -verbose            Enable verbose output

plan.csv:
    id,parent_id,region,supplier_id,good_id,good_type,start_time,end_time,quantity,actual_quantity,unit_price,has_weight_slip
    1,0,N,7,3,A,2025-01-01,2025-01-31,700,,2000,false
    2,1,N,7,3,A,2025-01-05,2025-01-20,300,,2000,false

catalog.csv:
    good_id,region,region_label,supplier_id,supplier_label,quality,quality_label
    3,N,North,7,Acme,A,Grade A
`)
}
