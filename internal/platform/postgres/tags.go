package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lociapp/loci-api/internal/domain"
	"github.com/lociapp/loci-api/internal/store"
)

// tagOwner identifies which join table links tags to an entity.
type tagOwner struct {
	joinTable string
	ownerCol  string
}

var (
	sourceTagOwner = tagOwner{joinTable: "source_tags", ownerCol: "source_id"}
	cardTagOwner   = tagOwner{joinTable: "card_tags", ownerCol: "card_id"}
)

// loadTags fetches the tags attached to a batch of owners in one query and
// returns them keyed by owner ID.
func loadTags(ctx context.Context, db store.DBTX, owner tagOwner, ids []uuid.UUID) (map[uuid.UUID][]domain.Tag, error) {
	if len(ids) == 0 {
		return map[uuid.UUID][]domain.Tag{}, nil
	}

	idStrings := make([]string, len(ids))
	for i, id := range ids {
		idStrings[i] = id.String()
	}

	query := fmt.Sprintf(`
		SELECT jt.%s, t.id, t.name, COALESCE(t.color, ''), t.created_at
		FROM %s jt
		JOIN tags t ON t.id = jt.tag_id
		WHERE jt.%s = ANY($1)
		ORDER BY t.name`,
		owner.ownerCol, owner.joinTable, owner.ownerCol)

	rows, err := db.QueryContext(ctx, query, idStrings)
	if err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[uuid.UUID][]domain.Tag)
	for rows.Next() {
		var ownerID uuid.UUID
		var tag domain.Tag
		if err := rows.Scan(&ownerID, &tag.ID, &tag.Name, &tag.Color, &tag.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tag row: %w", err)
		}
		result[ownerID] = append(result[ownerID], tag)
	}

	return result, rows.Err()
}

// replaceTags swaps the full tag attachment set of one owner.
func replaceTags(ctx context.Context, db store.DBTX, owner tagOwner, ownerID uuid.UUID, tags []domain.Tag) error {
	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", owner.joinTable, owner.ownerCol)
	if _, err := db.ExecContext(ctx, deleteQuery, ownerID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}

	insertQuery := fmt.Sprintf(
		"INSERT INTO %s (%s, tag_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		owner.joinTable, owner.ownerCol)
	for _, tag := range tags {
		if _, err := db.ExecContext(ctx, insertQuery, ownerID, tag.ID); err != nil {
			return fmt.Errorf("failed to attach tag %s: %w", tag.Name, err)
		}
	}

	return nil
}

// tagFilterClause returns an EXISTS clause restricting rows of alias to those
// carrying the named tag. The tag name is appended to args and referenced by
// its ordinal.
func tagFilterClause(owner tagOwner, alias string, argIndex int) string {
	return fmt.Sprintf(`EXISTS (
		SELECT 1 FROM %s jt JOIN tags t ON t.id = jt.tag_id
		WHERE jt.%s = %s.id AND t.name = $%d)`,
		owner.joinTable, owner.ownerCol, alias, argIndex)
}
