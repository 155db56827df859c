package seeder

import (
	"context"
	"errors"

	"github.com/brianvoe/gofakeit/v7"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/fornecedor/internal/entity"
	repo "github.com/Additional-Code/fornecedor/internal/repository/supplier"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder inserts development suppliers. Documents that already exist are skipped.
type Seeder struct {
	repo   *repo.Repository
	logger *zap.Logger
	faker  *gofakeit.Faker
}

// New constructs a Seeder with a randomly seeded faker.
func New(repository *repo.Repository, logger *zap.Logger) *Seeder {
	return NewWithFaker(repository, logger, gofakeit.New(0))
}

// NewWithFaker constructs a Seeder with a caller-controlled faker.
func NewWithFaker(repository *repo.Repository, logger *zap.Logger, faker *gofakeit.Faker) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{repo: repository, logger: logger, faker: faker}
}

// Samples seeds one well-known CPF supplier and one CNPJ supplier.
func (s *Seeder) Samples(ctx context.Context) (int, error) {
	samples := []*entity.Supplier{
		{
			DocumentType: entity.DocumentCPF,
			Document:     "12345678901",
			LegalName:    "João da Silva",
			Email:        ptr("joao.silva@example.com"),
			Phone:        ptr("11987654321"),
			City:         ptr("São Paulo"),
			State:        ptr("SP"),
		},
		{
			DocumentType: entity.DocumentCNPJ,
			Document:     "33000167000101",
			LegalName:    "PETROLEO BRASILEIRO S A PETROBRAS",
			TradeName:    ptr("PETROBRAS"),
			PostalCode:   ptr("20231-030"),
			Street:       ptr("Avenida República do Chile"),
			Number:       ptr("65"),
			District:     ptr("Centro"),
			City:         ptr("Rio de Janeiro"),
			State:        ptr("RJ"),
		},
	}
	return s.insert(ctx, "samples", samples)
}

// Random seeds n suppliers with generated data; optional fields are filled about half the time.
func (s *Seeder) Random(ctx context.Context, n int) (int, error) {
	suppliers := make([]*entity.Supplier, 0, n)
	for i := 0; i < n; i++ {
		suppliers = append(suppliers, s.fake())
	}
	return s.insert(ctx, "random", suppliers)
}

func (s *Seeder) fake() *entity.Supplier {
	f := s.faker
	supplier := &entity.Supplier{
		DocumentType: entity.DocumentCNPJ,
		Document:     f.Numerify("##############"),
		LegalName:    f.Company(),
	}
	if f.Bool() {
		supplier.DocumentType = entity.DocumentCPF
		supplier.Document = f.Numerify("###########")
		supplier.LegalName = f.Name()
	}

	supplier.TradeName = s.maybe(f.Company)
	supplier.Email = s.maybe(f.Email)
	supplier.Phone = s.maybe(func() string { return f.Numerify("###########") })
	supplier.PostalCode = s.maybe(func() string { return f.Numerify("#####-###") })
	supplier.Street = s.maybe(f.StreetName)
	supplier.Number = s.maybe(f.StreetNumber)
	supplier.District = s.maybe(f.StreetSuffix)
	supplier.City = s.maybe(f.City)
	supplier.State = s.maybe(f.StateAbr)
	return supplier
}

func (s *Seeder) maybe(gen func() string) *string {
	if !s.faker.Bool() {
		return nil
	}
	return ptr(gen())
}

func (s *Seeder) insert(ctx context.Context, batch string, suppliers []*entity.Supplier) (int, error) {
	inserted := 0
	for _, supplier := range suppliers {
		exists, err := s.repo.ExistsByDocument(ctx, supplier.Document, nil)
		if err != nil {
			return inserted, err
		}
		if exists {
			continue
		}
		if err := s.repo.Create(ctx, supplier); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				continue
			}
			return inserted, err
		}
		inserted++
	}

	s.logger.Info("seeded suppliers",
		zap.String("batch", batch),
		zap.Int("inserted", inserted),
		zap.Int("skipped", len(suppliers)-inserted),
	)
	return inserted, nil
}

func ptr(s string) *string { return &s }
