package customroles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"serotonyl.ru/shop-bot/internal/common"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/platform"
)

type mintLedger struct {
	balance int64
}

func (f *mintLedger) Credit(_ context.Context, _, _ int64, amount int64, _, _ string) (int64, error) {
	f.balance += amount
	return f.balance, nil
}

func (f *mintLedger) Deduct(_ context.Context, _, _ int64, amount int64, _, _ string) (int64, error) {
	if f.balance < amount {
		return 0, common.ErrInsufficientBalance
	}
	f.balance -= amount
	return f.balance, nil
}

type mintClient struct {
	nextRoleID int64
	createErr  error
	grantErr   error
	deleteErr  error

	created []platform.RoleSpec
	granted []int64
	deleted []int64
}

func (f *mintClient) CreateRole(_ context.Context, _ int64, spec platform.RoleSpec) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextRoleID++
	f.created = append(f.created, spec)
	return f.nextRoleID, nil
}

func (f *mintClient) EditRole(_ context.Context, _, _ int64, _ platform.RoleSpec) error {
	return nil
}

func (f *mintClient) DeleteRole(_ context.Context, _, roleID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, roleID)
	return nil
}

func (f *mintClient) GrantRole(_ context.Context, _, _, roleID int64) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	f.granted = append(f.granted, roleID)
	return nil
}

func mintGuilds(t *testing.T, doc string) *config.GuildStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guilds.yaml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("не удалось записать конфиг: %v", err)
	}
	store, err := config.NewGuildStore(path)
	if err != nil {
		t.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return store
}

const mintDoc = `
guilds:
  1:
    custom_role:
      min_boost_count: 2
      price: 1000
    regular_creation:
      enabled: true
      price: 5000
`

func TestMintBoosterPath(t *testing.T) {
	store := newFakeRoleStore()
	ledger := &mintLedger{balance: 2000}
	client := &mintClient{}
	cat := &fakeCatalog{}
	svc := NewService(store, ledger, &fakeBoosts{counts: map[int64]int{42: 3}}, client, cat, mintGuilds(t, mintDoc))

	spec := platform.RoleSpec{Name: "моя роль", Style: platform.StyleGradient, PrimaryColor: "#ff0000", SecondaryColor: "#0000ff"}
	role, err := svc.Mint(context.Background(), 1, 42, spec)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if !role.Boostered {
		t.Error("роль бустера должна помечаться как бустерская")
	}
	if ledger.balance != 1000 {
		t.Errorf("ожидали баланс 1000 после списания цены бустера, получили %d", ledger.balance)
	}
	if len(client.granted) != 1 {
		t.Errorf("роль должна быть выдана, выдано: %v", client.granted)
	}

	// Платная роль попадает на витрину с ценой создания — для продажи обратно.
	if len(cat.added) != 1 {
		t.Fatalf("ожидали 1 запись на витрине, получили %d", len(cat.added))
	}
	listing := cat.added[0]
	if listing.CreatorID == nil || *listing.CreatorID != 42 {
		t.Errorf("создатель роли записан неверно: %v", listing.CreatorID)
	}
	if listing.CreationPrice == nil || *listing.CreationPrice != 1000 {
		t.Errorf("цена создания записана неверно: %v", listing.CreationPrice)
	}
}

func TestMintRegularPath(t *testing.T) {
	store := newFakeRoleStore()
	ledger := &mintLedger{balance: 6000}
	client := &mintClient{}
	svc := NewService(store, ledger, &fakeBoosts{counts: map[int64]int{}}, client, &fakeCatalog{}, mintGuilds(t, mintDoc))

	spec := platform.RoleSpec{Name: "обычная", Style: platform.StyleSolid, PrimaryColor: "#00ff00"}
	role, err := svc.Mint(context.Background(), 1, 42, spec)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if role.Boostered {
		t.Error("роль без бустов не должна помечаться бустерской")
	}
	if ledger.balance != 1000 {
		t.Errorf("ожидали баланс 1000 после списания обычной цены, получили %d", ledger.balance)
	}
}

func TestMintRegularRejectsFancyStyles(t *testing.T) {
	svc := NewService(newFakeRoleStore(), &mintLedger{balance: 10000},
		&fakeBoosts{counts: map[int64]int{}}, &mintClient{}, &fakeCatalog{}, mintGuilds(t, mintDoc))

	spec := platform.RoleSpec{Name: "хочу градиент", Style: platform.StyleGradient}
	if _, err := svc.Mint(context.Background(), 1, 42, spec); !errors.Is(err, common.ErrNotEnoughBoosts) {
		t.Fatalf("ожидали ErrNotEnoughBoosts, получили %v", err)
	}
}

func TestMintCreationDisabled(t *testing.T) {
	doc := `
guilds:
  1:
    custom_role:
      min_boost_count: 2
      price: 1000
`
	svc := NewService(newFakeRoleStore(), &mintLedger{balance: 10000},
		&fakeBoosts{counts: map[int64]int{}}, &mintClient{}, &fakeCatalog{}, mintGuilds(t, doc))

	spec := platform.RoleSpec{Name: "роль", Style: platform.StyleSolid}
	if _, err := svc.Mint(context.Background(), 1, 42, spec); !errors.Is(err, common.ErrNotEnoughBoosts) {
		t.Fatalf("ожидали ErrNotEnoughBoosts, получили %v", err)
	}
}

func TestMintSecondRoleRejected(t *testing.T) {
	store := newFakeRoleStore(&CustomRole{GuildID: 1, UserID: 42, RoleID: 100})
	svc := NewService(store, &mintLedger{balance: 10000},
		&fakeBoosts{counts: map[int64]int{42: 3}}, &mintClient{}, &fakeCatalog{}, mintGuilds(t, mintDoc))

	spec := platform.RoleSpec{Name: "вторая", Style: platform.StyleSolid}
	if _, err := svc.Mint(context.Background(), 1, 42, spec); !errors.Is(err, common.ErrCustomRoleExists) {
		t.Fatalf("ожидали ErrCustomRoleExists, получили %v", err)
	}
}

func TestMintCreateFailureRefunds(t *testing.T) {
	ledger := &mintLedger{balance: 2000}
	client := &mintClient{createErr: errors.New("платформа недоступна")}
	svc := NewService(newFakeRoleStore(), ledger,
		&fakeBoosts{counts: map[int64]int{42: 3}}, client, &fakeCatalog{}, mintGuilds(t, mintDoc))

	spec := platform.RoleSpec{Name: "роль", Style: platform.StyleSolid}
	if _, err := svc.Mint(context.Background(), 1, 42, spec); err == nil {
		t.Fatal("ожидали ошибку создания")
	}
	if ledger.balance != 2000 {
		t.Errorf("деньги должны вернуться, баланс %d", ledger.balance)
	}
}

func TestMintGrantFailureCleansUp(t *testing.T) {
	ledger := &mintLedger{balance: 2000}
	client := &mintClient{grantErr: errors.New("участник исчез")}
	svc := NewService(newFakeRoleStore(), ledger,
		&fakeBoosts{counts: map[int64]int{42: 3}}, client, &fakeCatalog{}, mintGuilds(t, mintDoc))

	spec := platform.RoleSpec{Name: "роль", Style: platform.StyleSolid}
	if _, err := svc.Mint(context.Background(), 1, 42, spec); err == nil {
		t.Fatal("ожидали ошибку выдачи")
	}
	if ledger.balance != 2000 {
		t.Errorf("деньги должны вернуться, баланс %d", ledger.balance)
	}
	if len(client.deleted) != 1 {
		t.Errorf("осиротевшая роль должна удаляться, удалено: %v", client.deleted)
	}
}

func TestMintInvalidStyle(t *testing.T) {
	svc := NewService(newFakeRoleStore(), &mintLedger{balance: 2000},
		&fakeBoosts{counts: map[int64]int{42: 3}}, &mintClient{}, &fakeCatalog{}, mintGuilds(t, mintDoc))

	spec := platform.RoleSpec{Name: "роль", Style: "neon"}
	if _, err := svc.Mint(context.Background(), 1, 42, spec); !errors.Is(err, common.ErrInvalidRoleStyle) {
		t.Fatalf("ожидали ErrInvalidRoleStyle, получили %v", err)
	}
}

func TestDeleteForbiddenRemovesRecord(t *testing.T) {
	store := newFakeRoleStore(&CustomRole{GuildID: 1, UserID: 42, RoleID: 100})
	client := &mintClient{deleteErr: platform.ErrForbidden}
	cat := &fakeCatalog{}
	svc := NewService(store, &mintLedger{}, &fakeBoosts{counts: map[int64]int{}}, client, cat, mintGuilds(t, mintDoc))

	if err := svc.Delete(context.Background(), 1, 42); err != nil {
		t.Fatalf("окончательный отказ платформы не должен быть ошибкой удаления: %v", err)
	}
	if _, ok := store.roles[42]; ok {
		t.Error("запись должна удаляться даже без прав на роль")
	}
	if len(cat.removed) != 1 || cat.removed[0] != 100 {
		t.Errorf("роль должна сниматься с витрины, снято: %v", cat.removed)
	}
}

func TestEditRegularRejectsFancyStyles(t *testing.T) {
	store := newFakeRoleStore(&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Boostered: false, Style: platform.StyleSolid})
	svc := NewService(store, &mintLedger{}, &fakeBoosts{counts: map[int64]int{}}, &mintClient{}, &fakeCatalog{}, mintGuilds(t, mintDoc))

	spec := platform.RoleSpec{Name: "роль", Style: platform.StyleHolographic}
	if err := svc.Edit(context.Background(), 1, 42, spec); !errors.Is(err, common.ErrNotEnoughBoosts) {
		t.Fatalf("ожидали ErrNotEnoughBoosts, получили %v", err)
	}
}
