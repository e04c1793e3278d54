package db

import (
	"budget-bee-server/src/models"
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const categoryColumns = `id, name, icon, color, type, is_default`

func scanCategory(row pgx.Row) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Icon, &c.Color, &c.Type, &c.IsDefault); err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

func GetAllCategories(ctx context.Context, q DBTX) ([]models.Category, error) {
	rows, err := q.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

func GetCategoryByID(ctx context.Context, q DBTX, id uuid.UUID) (*models.Category, error) {
	return scanCategory(q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
}

func GetCategoryByName(ctx context.Context, q DBTX, name string) (*models.Category, error) {
	return scanCategory(q.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = $1`, name))
}
