package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"repair_crm_backend/internal/models"
)

// TicketRepository defines the interface for repair ticket and ticket
// image database operations. All lookups are store-scoped.
type TicketRepository interface {
	CreateTicket(executor SQLExecutor, ticket *models.RepairTicket) (int64, error)
	GetTicketByID(storeID, ticketID int64) (*models.RepairTicket, error)
	GetTickets(storeID int64, filters models.TicketFilters) ([]models.RepairTicket, int, error)
	UpdateTicket(executor SQLExecutor, ticket *models.RepairTicket) error
	DeleteTicket(executor SQLExecutor, storeID, ticketID int64) error
	GetImagesByTicketID(ticketID int64) ([]models.TicketImage, error)
	CreateImage(executor SQLExecutor, image *models.TicketImage) (int64, error)
	DeleteImagesByTicketID(executor SQLExecutor, ticketID int64) error
}

type ticketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new instance of TicketRepository.
func NewTicketRepository(db *sql.DB) TicketRepository {
	return &ticketRepository{db: db}
}

const ticketColumns = `id, store_id, customer_id, device_type, device_brand, device_model, serial_number,
	issue_description, status, priority, estimated_cost, actual_cost,
	estimated_completion, actual_completion, notes, created_at, updated_at`

func (r *ticketRepository) CreateTicket(executor SQLExecutor, ticket *models.RepairTicket) (int64, error) {
	query := `INSERT INTO repair_tickets
	          (store_id, customer_id, device_type, device_brand, device_model, serial_number,
	           issue_description, status, priority, estimated_cost, actual_cost,
	           estimated_completion, actual_completion, notes, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	          RETURNING id`
	currentTime := time.Now()
	err := executor.QueryRow(query,
		ticket.StoreID, ticket.CustomerID, ticket.DeviceType, ticket.DeviceBrand,
		ticket.DeviceModel, ticket.SerialNumber, ticket.IssueDescription,
		ticket.Status, ticket.Priority, ticket.EstimatedCost, ticket.ActualCost,
		ticket.EstimatedCompletion, ticket.ActualCompletion, ticket.Notes,
		currentTime, currentTime,
	).Scan(&ticket.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating repair ticket: %v", ErrDatabaseError, err)
	}
	return ticket.ID, nil
}

func (r *ticketRepository) GetTicketByID(storeID, ticketID int64) (*models.RepairTicket, error) {
	ticket := &models.RepairTicket{}
	query := `SELECT ` + ticketColumns + ` FROM repair_tickets WHERE id = $1 AND store_id = $2`
	err := r.db.QueryRow(query, ticketID, storeID).Scan(
		&ticket.ID, &ticket.StoreID, &ticket.CustomerID, &ticket.DeviceType, &ticket.DeviceBrand,
		&ticket.DeviceModel, &ticket.SerialNumber, &ticket.IssueDescription,
		&ticket.Status, &ticket.Priority, &ticket.EstimatedCost, &ticket.ActualCost,
		&ticket.EstimatedCompletion, &ticket.ActualCompletion, &ticket.Notes,
		&ticket.CreatedAt, &ticket.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting repair ticket by ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	return ticket, nil
}

func (r *ticketRepository) GetTickets(storeID int64, filters models.TicketFilters) ([]models.RepairTicket, int, error) {
	tickets := []models.RepairTicket{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT
	    rt.id, rt.store_id, rt.customer_id, rt.device_type, rt.device_brand, rt.device_model,
	    rt.serial_number, rt.issue_description, rt.status, rt.priority,
	    rt.estimated_cost, rt.actual_cost, rt.estimated_completion, rt.actual_completion,
	    rt.notes, rt.created_at, rt.updated_at,
	    c.full_name AS customer_name,
	    COUNT(*) OVER() AS total_count
	  FROM repair_tickets rt
	  JOIN customers c ON rt.customer_id = c.id`)

	conditions := []string{"rt.store_id = $1"}
	args := []interface{}{storeID}
	argCount := 2

	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("rt.status = $%d", argCount))
		args = append(args, *filters.Status)
		argCount++
	}
	if filters.Priority != nil && *filters.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("rt.priority = $%d", argCount))
		args = append(args, *filters.Priority)
		argCount++
	}
	if filters.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("rt.customer_id = $%d", argCount))
		args = append(args, *filters.CustomerID)
		argCount++
	}
	if filters.Search != nil && *filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(rt.device_type ILIKE $%d OR rt.device_brand ILIKE $%d OR rt.device_model ILIKE $%d OR rt.issue_description ILIKE $%d)",
			argCount, argCount, argCount, argCount))
		args = append(args, "%"+*filters.Search+"%")
		argCount++
	}

	queryBuilder.WriteString(" WHERE ")
	queryBuilder.WriteString(strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY rt.created_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCount, argCount+1))
	args = append(args, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: getting repair tickets: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var ticket models.RepairTicket
		var customerName sql.NullString
		if err := rows.Scan(
			&ticket.ID, &ticket.StoreID, &ticket.CustomerID, &ticket.DeviceType, &ticket.DeviceBrand,
			&ticket.DeviceModel, &ticket.SerialNumber, &ticket.IssueDescription,
			&ticket.Status, &ticket.Priority, &ticket.EstimatedCost, &ticket.ActualCost,
			&ticket.EstimatedCompletion, &ticket.ActualCompletion, &ticket.Notes,
			&ticket.CreatedAt, &ticket.UpdatedAt, &customerName, &totalCount,
		); err != nil {
			return nil, 0, fmt.Errorf("%w: scanning repair ticket: %v", ErrDatabaseError, err)
		}
		if customerName.Valid {
			ticket.Customer = &models.Customer{ID: ticket.CustomerID, StoreID: ticket.StoreID, FullName: customerName.String}
		}
		tickets = append(tickets, ticket)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating repair tickets: %v", ErrDatabaseError, err)
	}
	return tickets, totalCount, nil
}

func (r *ticketRepository) UpdateTicket(executor SQLExecutor, ticket *models.RepairTicket) error {
	query := `UPDATE repair_tickets SET
	            customer_id = $1, device_type = $2, device_brand = $3, device_model = $4,
	            serial_number = $5, issue_description = $6, status = $7, priority = $8,
	            estimated_cost = $9, actual_cost = $10, estimated_completion = $11,
	            actual_completion = $12, notes = $13, updated_at = $14
	          WHERE id = $15 AND store_id = $16`
	result, err := executor.Exec(query,
		ticket.CustomerID, ticket.DeviceType, ticket.DeviceBrand, ticket.DeviceModel,
		ticket.SerialNumber, ticket.IssueDescription, ticket.Status, ticket.Priority,
		ticket.EstimatedCost, ticket.ActualCost, ticket.EstimatedCompletion,
		ticket.ActualCompletion, ticket.Notes, time.Now(),
		ticket.ID, ticket.StoreID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating repair ticket ID %d: %v", ErrDatabaseError, ticket.ID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) DeleteTicket(executor SQLExecutor, storeID, ticketID int64) error {
	query := `DELETE FROM repair_tickets WHERE id = $1 AND store_id = $2`
	result, err := executor.Exec(query, ticketID, storeID)
	if err != nil {
		return fmt.Errorf("%w: deleting repair ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ticketRepository) GetImagesByTicketID(ticketID int64) ([]models.TicketImage, error) {
	images := []models.TicketImage{}
	query := `SELECT id, ticket_id, file_path, caption, created_at FROM ticket_images WHERE ticket_id = $1 ORDER BY created_at`
	rows, err := r.db.Query(query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("%w: getting images for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var image models.TicketImage
		if err := rows.Scan(&image.ID, &image.TicketID, &image.FilePath, &image.Caption, &image.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: scanning ticket image: %v", ErrDatabaseError, err)
		}
		images = append(images, image)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating ticket images: %v", ErrDatabaseError, err)
	}
	return images, nil
}

func (r *ticketRepository) CreateImage(executor SQLExecutor, image *models.TicketImage) (int64, error) {
	query := `INSERT INTO ticket_images (ticket_id, file_path, caption, created_at)
	          VALUES ($1, $2, $3, $4) RETURNING id`
	err := executor.QueryRow(query, image.TicketID, image.FilePath, image.Caption, time.Now()).Scan(&image.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating ticket image: %v", ErrDatabaseError, err)
	}
	return image.ID, nil
}

func (r *ticketRepository) DeleteImagesByTicketID(executor SQLExecutor, ticketID int64) error {
	_, err := executor.Exec(`DELETE FROM ticket_images WHERE ticket_id = $1`, ticketID)
	if err != nil {
		return fmt.Errorf("%w: deleting images for ticket ID %d: %v", ErrDatabaseError, ticketID, err)
	}
	return nil
}
