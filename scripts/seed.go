package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/domain/entities"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/Radiologyorderplatformdesign/backend/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pgClient.Close()

	ctx := context.Background()
	db := pgClient.DB()

	if os.Getenv("RESET_DB") == "true" {
		log.Println("RESET_DB=true detected, truncating tables before seeding")
		_, err := db.ExecContext(ctx, `
			TRUNCATE TABLE
				webhook_events,
				organization_notifications,
				billing_events,
				credit_usage_logs,
				validation_attempts,
				order_history,
				orders,
				patient_insurance,
				patients,
				organization_relationships,
				purgatory_events,
				users,
				organizations
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatalf("Failed to reset tables: %v", err)
		}
	}

	// 1. Seed organizations: two referring practices and two radiology groups.
	// Balances start at the tier allocation, as if just replenished.
	type seedOrg struct {
		id       string
		name     string
		orgType  entities.OrganizationType
		tier     entities.SubscriptionTier
		customer string
	}
	orgs := []seedOrg{
		{uuid.New().String(), "Lakeside Family Medicine", entities.OrganizationTypeReferring, entities.TierOne, "cus_seed_lakeside"},
		{uuid.New().String(), "Summit Orthopedic Associates", entities.OrganizationTypeReferring, entities.TierFree, "cus_seed_summit"},
		{uuid.New().String(), "Metro Imaging Partners", entities.OrganizationTypeRadiology, entities.TierTwo, "cus_seed_metro"},
		{uuid.New().String(), "Riverbend Diagnostic Radiology", entities.OrganizationTypeRadiology, entities.TierOne, "cus_seed_riverbend"},
	}

	for _, o := range orgs {
		allocation, _ := entities.AllocationForTier(o.tier)
		_, err := db.ExecContext(ctx, `
			INSERT INTO organizations
				(id, name, type, status, subscription_tier, billing_customer_id,
				 credit_balance, basic_credit_balance, advanced_credit_balance,
				 created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())
			ON CONFLICT (id) DO NOTHING`,
			o.id, o.name, o.orgType, entities.OrganizationStatusActive, o.tier, o.customer,
			allocation.ReferringCredits, allocation.BasicCredits, allocation.AdvancedCredits,
		)
		if err != nil {
			log.Printf("Failed to create organization %s: %v", o.name, err)
		}
	}

	// 2. Seed users: one admin and one physician per organization
	for i, o := range orgs {
		users := []struct {
			email string
			first string
			last  string
			role  entities.UserRole
		}{
			{emailFor("admin", i), "Avery", "Coleman", entities.UserRoleAdmin},
			{emailFor("doctor", i), "Jordan", "Reyes", entities.UserRolePhysician},
		}
		for _, u := range users {
			_, err := db.ExecContext(ctx, `
				INSERT INTO users (id, organization_id, email, first_name, last_name, role, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
				ON CONFLICT (email) DO NOTHING`,
				uuid.New().String(), o.id, u.email, u.first, u.last, u.role,
			)
			if err != nil {
				log.Printf("Failed to create user %s: %v", u.email, err)
			}
		}
	}

	// 3. Link each referring practice to each radiology group
	for _, ref := range orgs[:2] {
		for _, rad := range orgs[2:] {
			_, err := db.ExecContext(ctx, `
				INSERT INTO organization_relationships
					(id, referring_organization_id, radiology_organization_id, status, created_at, updated_at)
				VALUES ($1, $2, $3, $4, NOW(), NOW())
				ON CONFLICT (referring_organization_id, radiology_organization_id) DO NOTHING`,
				uuid.New().String(), ref.id, rad.id, entities.RelationshipStatusActive,
			)
			if err != nil {
				log.Printf("Failed to link %s -> %s: %v", ref.name, rad.name, err)
			}
		}
	}

	// 4. Seed a patient with primary insurance for each referring practice
	for i, o := range orgs[:2] {
		patientID := uuid.New().String()
		dob := time.Date(1961+10*i, time.March, 14, 0, 0, 0, 0, time.UTC)
		_, err := db.ExecContext(ctx, `
			INSERT INTO patients
				(id, organization_id, first_name, last_name, date_of_birth, gender,
				 phone, address_line1, city, state, zip_code, mrn, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
			ON CONFLICT (id) DO NOTHING`,
			patientID, o.id, "Morgan", "Ellery", dob, "female",
			"555-0142", "18 Harbor Lane", "Portsmouth", "NH", "03801", mrnFor(i),
		)
		if err != nil {
			log.Printf("Failed to create patient for %s: %v", o.name, err)
			continue
		}

		_, err = db.ExecContext(ctx, `
			INSERT INTO patient_insurance
				(id, patient_id, is_primary, insurer_name, policy_number,
				 group_number, policy_holder_name, policy_holder_relation, created_at, updated_at)
			VALUES ($1, $2, true, $3, $4, $5, $6, $7, NOW(), NOW())`,
			uuid.New().String(), patientID, "Granite State Health",
			"GSH-44820117", "GRP-2291", "Morgan Ellery", "self",
		)
		if err != nil {
			log.Printf("Failed to create insurance for patient %s: %v", patientID, err)
		}
	}

	log.Println("Seeding completed: organizations, users, relationships and patients are in place")
}

func emailFor(role string, i int) string {
	suffixes := []string{"lakeside", "summit", "metro", "riverbend"}
	return role + "@" + suffixes[i] + ".example.org"
}

func mrnFor(i int) string {
	mrns := []string{"MRN-100482", "MRN-100963"}
	return mrns[i]
}
