package repository

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/actuallystonmai/product-recommender/internal/domain"
)

// LogAction appends one row to agent_logs. Execution time is stored in seconds.
func (r *Repository) LogAction(ctx context.Context, rec domain.AuditRecord) error {
	data := rec.ActionData
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal action data: %w", err)
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO agent_logs
			(agent_name, action_type, target_id, target_type, action_data, result, error_message, execution_time)
		VALUES ($1, $2, NULLIF($3::bigint, 0), NULLIF($4::text, ''), $5::jsonb, $6, NULLIF($7::text, ''), $8)`,
		rec.AgentName, rec.ActionType, rec.TargetID, rec.TargetType,
		string(payload), rec.Result, rec.ErrorMessage, rec.ExecutionTime.Seconds(),
	)
	if err != nil {
		return fmt.Errorf("insert agent log %s/%s: %w", rec.AgentName, rec.ActionType, err)
	}
	return nil
}
