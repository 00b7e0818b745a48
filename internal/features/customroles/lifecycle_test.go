package customroles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"serotonyl.ru/shop-bot/internal/common"
	"serotonyl.ru/shop-bot/internal/config"
	"serotonyl.ru/shop-bot/internal/features/shop"
	"serotonyl.ru/shop-bot/internal/platform"
)

type fakeCatalog struct {
	added   []*shop.ShopRole
	removed []int64
}

func (f *fakeCatalog) Add(_ context.Context, role *shop.ShopRole) error {
	f.added = append(f.added, role)
	return nil
}

func (f *fakeCatalog) Remove(_ context.Context, _, roleID int64) error {
	f.removed = append(f.removed, roleID)
	return nil
}

type fakeRoleStore struct {
	roles map[int64]*CustomRole // по user_id
}

func newFakeRoleStore(roles ...*CustomRole) *fakeRoleStore {
	s := &fakeRoleStore{roles: make(map[int64]*CustomRole)}
	for _, r := range roles {
		s.roles[r.UserID] = r
	}
	return s
}

func (f *fakeRoleStore) GetByUser(_ context.Context, _, userID int64) (*CustomRole, error) {
	role, ok := f.roles[userID]
	if !ok {
		return nil, common.ErrCustomRoleNotFound
	}
	return role, nil
}

func (f *fakeRoleStore) ListByGuild(_ context.Context, _ int64) ([]*CustomRole, error) {
	var out []*CustomRole
	for _, r := range f.roles {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoleStore) Insert(_ context.Context, role *CustomRole) error {
	if _, ok := f.roles[role.UserID]; ok {
		return common.ErrCustomRoleExists
	}
	f.roles[role.UserID] = role
	return nil
}

func (f *fakeRoleStore) Update(_ context.Context, role *CustomRole) error {
	f.roles[role.UserID] = role
	return nil
}

func (f *fakeRoleStore) Delete(_ context.Context, _, userID int64) error {
	delete(f.roles, userID)
	return nil
}

type fakeBoosts struct {
	counts map[int64]int
}

func (f *fakeBoosts) EffectiveBoosts(_ context.Context, _, userID int64) (int, error) {
	return f.counts[userID], nil
}

type fakeLifecycleClient struct {
	members   map[int64]bool
	positions []platform.RolePosition
	topPos    int

	deleteErr error
	noticeErr error

	deleted     []int64
	notices     []int64
	noticeTexts []string
	reordered   [][]platform.RolePosition
}

func (f *fakeLifecycleClient) Ready(_ int64) bool { return true }

func (f *fakeLifecycleClient) IsMember(_ context.Context, _, userID int64) (bool, error) {
	return f.members[userID], nil
}

func (f *fakeLifecycleClient) DeleteRole(_ context.Context, _, roleID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, roleID)
	return nil
}

func (f *fakeLifecycleClient) SendDirectNotice(_ context.Context, userID int64, text string) error {
	if f.noticeErr != nil {
		return f.noticeErr
	}
	f.notices = append(f.notices, userID)
	f.noticeTexts = append(f.noticeTexts, text)
	return nil
}

func (f *fakeLifecycleClient) OwnTopPosition(_ context.Context, _ int64) (int, error) {
	return f.topPos, nil
}

func (f *fakeLifecycleClient) RolePositions(_ context.Context, _ int64, _ []int64) ([]platform.RolePosition, error) {
	return f.positions, nil
}

func (f *fakeLifecycleClient) ReorderRoles(_ context.Context, _ int64, positions []platform.RolePosition) error {
	f.reordered = append(f.reordered, positions)
	return nil
}

func lifecycleGuilds(t *testing.T) *config.GuildStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "guilds.yaml")
	doc := `
guilds:
  1:
    custom_role:
      min_boost_count: 2
      price: 1000
      min_position: 5
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("не удалось записать конфиг: %v", err)
	}
	store, err := config.NewGuildStore(path)
	if err != nil {
		t.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return store
}

func TestSweepGuildRevokesDeparted(t *testing.T) {
	store := newFakeRoleStore(
		&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Name: "тест", Boostered: true},
	)
	client := &fakeLifecycleClient{members: map[int64]bool{}, topPos: 50}
	m := NewManager(store, &fakeBoosts{counts: map[int64]int{42: 5}}, client, &fakeCatalog{}, lifecycleGuilds(t))

	if err := m.SweepGuild(context.Background(), 1); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if _, ok := store.roles[42]; ok {
		t.Error("запись ушедшего участника должна быть удалена")
	}
	if len(client.deleted) != 1 || client.deleted[0] != 100 {
		t.Errorf("роль 100 должна быть удалена, удалены: %v", client.deleted)
	}
	if len(client.notices) != 0 {
		t.Errorf("ушедшему участнику не отправляются уведомления, отправлено: %v", client.notices)
	}
}

func TestSweepGuildRevokesOnBoostLoss(t *testing.T) {
	store := newFakeRoleStore(
		&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Name: "тест", Boostered: true},
	)
	client := &fakeLifecycleClient{members: map[int64]bool{42: true}, topPos: 50}
	cat := &fakeCatalog{}
	m := NewManager(store, &fakeBoosts{counts: map[int64]int{42: 1}}, client, cat, lifecycleGuilds(t))

	if err := m.SweepGuild(context.Background(), 1); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if _, ok := store.roles[42]; ok {
		t.Error("роль при потере бустов должна отзываться")
	}
	if len(client.notices) != 1 || client.notices[0] != 42 {
		t.Errorf("участник должен получить уведомление, получили: %v", client.notices)
	}
	if len(client.noticeTexts) != 1 || !strings.Contains(client.noticeTexts[0], "2 буста") {
		t.Errorf("в уведомлении ожидали «2 буста», получили: %v", client.noticeTexts)
	}
	if len(cat.removed) != 1 || cat.removed[0] != 100 {
		t.Errorf("отозванная роль должна сниматься с витрины, снято: %v", cat.removed)
	}
}

func TestSweepGuildKeepsEligible(t *testing.T) {
	store := newFakeRoleStore(
		&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Boostered: true},
		&CustomRole{GuildID: 1, UserID: 43, RoleID: 101, Boostered: false},
	)
	client := &fakeLifecycleClient{
		members: map[int64]bool{42: true, 43: true},
		topPos:  50,
		positions: []platform.RolePosition{
			{RoleID: 100, Position: 49},
			{RoleID: 101, Position: 48},
		},
	}
	// У 43 бустов нет, но его роль не бустерская — право не зависит от бустов.
	m := NewManager(store, &fakeBoosts{counts: map[int64]int{42: 3}}, client, &fakeCatalog{}, lifecycleGuilds(t))

	if err := m.SweepGuild(context.Background(), 1); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(store.roles) != 2 {
		t.Errorf("обе роли должны остаться, осталось %d", len(store.roles))
	}
	if len(client.deleted) != 0 {
		t.Errorf("ничего не должно удаляться, удалено: %v", client.deleted)
	}
}

func TestRevokeNotificationFailureDoesNotBlock(t *testing.T) {
	store := newFakeRoleStore(
		&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Boostered: true},
	)
	client := &fakeLifecycleClient{
		members:   map[int64]bool{42: true},
		topPos:    50,
		noticeErr: errors.New("личные сообщения закрыты"),
	}
	m := NewManager(store, &fakeBoosts{counts: map[int64]int{42: 0}}, client, &fakeCatalog{}, lifecycleGuilds(t))

	if err := m.SweepGuild(context.Background(), 1); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, ok := store.roles[42]; ok {
		t.Error("недоставленное уведомление не должно блокировать отзыв")
	}
	if len(client.deleted) != 1 {
		t.Errorf("роль должна быть удалена, удалено: %v", client.deleted)
	}
}

func TestRevokePlatformFailureKeepsRecord(t *testing.T) {
	store := newFakeRoleStore(
		&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Boostered: true},
	)
	client := &fakeLifecycleClient{
		members:   map[int64]bool{42: true},
		topPos:    50,
		deleteErr: errors.New("платформа недоступна"),
	}
	m := NewManager(store, &fakeBoosts{counts: map[int64]int{42: 0}}, client, &fakeCatalog{}, lifecycleGuilds(t))

	if err := m.SweepGuild(context.Background(), 1); err != nil {
		t.Fatalf("ошибка одного отзыва не должна валить проход: %v", err)
	}
	if _, ok := store.roles[42]; !ok {
		t.Error("при недоступной платформе запись должна сохраниться для повтора")
	}
}

func TestRevokeGoneRoleIsSuccess(t *testing.T) {
	store := newFakeRoleStore(
		&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Boostered: true},
	)
	client := &fakeLifecycleClient{
		members:   map[int64]bool{42: true},
		topPos:    50,
		deleteErr: platform.ErrGone,
	}
	m := NewManager(store, &fakeBoosts{counts: map[int64]int{42: 0}}, client, &fakeCatalog{}, lifecycleGuilds(t))

	if err := m.SweepGuild(context.Background(), 1); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, ok := store.roles[42]; ok {
		t.Error("уже удалённая роль — успешный отзыв, запись должна уйти")
	}
}

func TestRevokeForbiddenDeletesRecord(t *testing.T) {
	store := newFakeRoleStore(
		&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Boostered: true},
	)
	client := &fakeLifecycleClient{
		members:   map[int64]bool{42: true},
		topPos:    50,
		deleteErr: platform.ErrForbidden,
	}
	m := NewManager(store, &fakeBoosts{counts: map[int64]int{42: 0}}, client, &fakeCatalog{}, lifecycleGuilds(t))

	if err := m.SweepGuild(context.Background(), 1); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, ok := store.roles[42]; ok {
		t.Error("окончательный отказ в правах не лечится повтором — запись должна уйти")
	}
}

func TestCheckMemberTargeted(t *testing.T) {
	store := newFakeRoleStore(
		&CustomRole{GuildID: 1, UserID: 42, RoleID: 100, Boostered: true},
	)
	client := &fakeLifecycleClient{members: map[int64]bool{42: true}, topPos: 50}
	m := NewManager(store, &fakeBoosts{counts: map[int64]int{42: 0}}, client, &fakeCatalog{}, lifecycleGuilds(t))

	if err := m.CheckMember(context.Background(), 1, 42); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if _, ok := store.roles[42]; ok {
		t.Error("точечная проверка должна отозвать роль")
	}

	// Участник без роли — не ошибка.
	if err := m.CheckMember(context.Background(), 1, 99); err != nil {
		t.Fatalf("участник без роли не должен давать ошибку: %v", err)
	}
}

func TestComputeTargetPositions(t *testing.T) {
	tests := []struct {
		name        string
		current     []platform.RolePosition
		marker      int
		floor       int
		want        []platform.RolePosition
		wantChanged bool
	}{
		{
			name: "блок уже на месте",
			current: []platform.RolePosition{
				{RoleID: 1, Position: 49},
				{RoleID: 2, Position: 48},
			},
			marker:      50,
			floor:       5,
			want:        []platform.RolePosition{{RoleID: 1, Position: 49}, {RoleID: 2, Position: 48}},
			wantChanged: false,
		},
		{
			name: "роли подтягиваются под бота с сохранением порядка",
			current: []platform.RolePosition{
				{RoleID: 1, Position: 30},
				{RoleID: 2, Position: 10},
				{RoleID: 3, Position: 20},
			},
			marker: 50,
			floor:  5,
			want: []platform.RolePosition{
				{RoleID: 1, Position: 49},
				{RoleID: 3, Position: 48},
				{RoleID: 2, Position: 47},
			},
			wantChanged: true,
		},
		{
			name: "позиции не опускаются ниже пола",
			current: []platform.RolePosition{
				{RoleID: 1, Position: 4},
				{RoleID: 2, Position: 3},
			},
			marker: 6,
			floor:  5,
			want: []platform.RolePosition{
				{RoleID: 1, Position: 5},
				{RoleID: 2, Position: 5},
			},
			wantChanged: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := computeTargetPositions(tt.current, tt.marker, tt.floor)
			if changed != tt.wantChanged {
				t.Fatalf("changed: ожидали %v, получили %v", tt.wantChanged, changed)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("ожидали %d позиций, получили %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("позиция %d: ожидали %+v, получили %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}
