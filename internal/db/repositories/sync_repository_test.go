package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"scf-community/governor/internal/db/testdb"
	"scf-community/governor/internal/models/entities"
	gormModels "scf-community/governor/internal/models/gorm"
)

func TestSyncRepository_BatchesUnderParamCeiling(t *testing.T) {
	gdb := testdb.Open(t)
	// 12 params fit 3 member rows (4 columns) per statement
	repo := NewSyncRepository(testdb.Sqlx(t, gdb), 12)
	ctx := context.Background()

	members := make([]entities.MemberRow, 10)
	for i := range members {
		members[i] = entities.MemberRow{
			MemberID: fmt.Sprintf("m%02d", i),
			Username: fmt.Sprintf("user%02d", i),
			GuildID:  "guild-1",
		}
	}

	batches, err := repo.UpsertMembers(ctx, members)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if batches != 4 {
		t.Errorf("Expected 4 batches, got %d", batches)
	}

	var count int64
	gdb.Model(&gormModels.Member{}).Count(&count)
	if count != 10 {
		t.Errorf("Expected 10 members, got %d", count)
	}

	// upsert updates in place
	members[0].Username = "renamed"
	if _, err := repo.UpsertMembers(ctx, members[:1]); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	var m gormModels.Member
	gdb.Where("member_id = ?", "m00").First(&m)
	if m.Username != "renamed" {
		t.Errorf("Expected username updated, got %s", m.Username)
	}
}

func TestSyncRepository_RolesAndGrants(t *testing.T) {
	gdb := testdb.Open(t)
	repo := NewSyncRepository(testdb.Sqlx(t, gdb), 0)
	ctx := context.Background()

	if err := repo.UpsertGuild(ctx, "guild-1", "SCF"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	roles := []entities.RoleRow{
		{RoleID: "r1", RoleName: "SCF Pathfinder", GuildID: "guild-1"},
		{RoleID: "r2", RoleName: "SCF Navigator", GuildID: "guild-1"},
	}
	if _, err := repo.UpsertRoles(ctx, roles); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	grant := entities.UserRoleRow{UserID: "u1", RoleID: "r2", GuildID: "guild-1", RoleAssignedAt: time.Now().UTC()}
	for i := 0; i < 2; i++ {
		if _, err := repo.UpsertUserRoles(ctx, []entities.UserRoleRow{grant}); err != nil {
			t.Fatalf("Expected grant upsert to be idempotent, got %v", err)
		}
	}

	names, err := NewUserRoleRepository(gdb).RoleNamesForUser(ctx, "guild-1", "u1")
	if err != nil || len(names) != 1 || names[0] != "SCF Navigator" {
		t.Errorf("Expected [SCF Navigator], got %v (%v)", names, err)
	}

	guilds, _ := NewGuildRepository(gdb).List(ctx)
	if len(guilds) != 1 || guilds[0].GuildName != "SCF" {
		t.Errorf("Expected guild stored, got %v", guilds)
	}
}

func TestKeysRepo_Lifecycle(t *testing.T) {
	gdb := testdb.Open(t)
	repo := NewApiKeysRepo(testdb.Sqlx(t, gdb))
	ctx := context.Background()

	key, err := repo.Create(ctx, "ops")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := repo.GetStatus(ctx, key.ApiKey)
	if err != nil || got == nil || !got.Status {
		t.Fatalf("Expected active key, got %v (%v)", got, err)
	}

	if err := repo.Revoke(ctx, key.ApiKey); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	got, _ = repo.GetStatus(ctx, key.ApiKey)
	if got == nil || got.Status {
		t.Errorf("Expected revoked key, got %v", got)
	}

	missing, err := repo.GetStatus(ctx, "nope")
	if err != nil || missing != nil {
		t.Errorf("Expected nil for unknown key, got %v (%v)", missing, err)
	}
}
