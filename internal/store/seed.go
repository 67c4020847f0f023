package store

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// SeedPassword is the initial password of every seeded account.
const SeedPassword = "password123"

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// Seed returns the demo dataset the application starts with. Passwords are
// hashed with the given bcrypt cost.
func Seed(cost int) (Dataset, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), cost)
	if err != nil {
		return Dataset{}, fmt.Errorf("store: hash seed password: %w", err)
	}
	pw := string(hash)

	return Dataset{
		Items: []Item{
			{ID: "1", Name: "أسمنت بورتلاندي", Code: "CEM-001", Unit: "طن", Stock: d(150), Price: d(1800), LowStockThreshold: d(20), Category: "مواد بناء"},
			{ID: "2", Name: "حديد تسليح 16مم", Code: "STL-016", Unit: "طن", Stock: d(75), Price: d(25000), LowStockThreshold: d(10), Category: "حديد وصلب"},
			{ID: "3", Name: "رمل ناعم", Code: "SND-002", Unit: "م³", Stock: d(300), Price: d(120), LowStockThreshold: d(50), Category: "مواد بناء"},
			{ID: "4", Name: "مواسير PVC 4 بوصة", Code: "PVC-004", Unit: "متر", Stock: d(800), Price: d(45), LowStockThreshold: d(100), Category: "سباكة"},
			{ID: "5", Name: "دهان بلاستيك أبيض", Code: "PNT-001", Unit: "جالون", Stock: d(45), Price: d(350), LowStockThreshold: d(10), Category: "دهانات"},
			{ID: "6", Name: "سلك كهرباء 2مم", Code: "WIR-002", Unit: "لفة", Stock: d(120), Price: d(280), LowStockThreshold: d(25), Category: "كهرباء"},
		},
		Projects: []Project{
			{ID: "1", Name: "مشروع بناء برج النخيل", Supervisor: "م. أحمد علي", Status: ProjectActive, Cost: d(1250000)},
			{ID: "2", Name: "تطوير طرق منطقة شرق القاهرة", Supervisor: "م. سارة محمود", Status: ProjectActive, Cost: d(780000)},
			{ID: "3", Name: "صيانة مبنى الهيئة العامة", Supervisor: "م. خالد إبراهيم", Status: ProjectCompleted, Cost: d(350000)},
		},
		Clients: []Client{
			{ID: "1", Name: "شركة المقاولون العرب", ContactPerson: "أ. محمد فتحي", Phone: "01012345678", Balance: d(45000), PaymentTerms: TermsDeferred},
			{ID: "2", Name: "شركة أوراسكوم للإنشاءات", ContactPerson: "أ. هدى كامل", Phone: "01298765432", Balance: d(0), PaymentTerms: TermsImmediate},
			{ID: "3", Name: "مؤسسة البناء الحديث", ContactPerson: "أ. عمر شريف", Phone: "01122334455", Balance: d(12000), PaymentTerms: TermsDeferred},
		},
		Invoices: []Invoice{
			{
				ID: "1", InvoiceNumber: "INV-2024-001", ClientID: "1", ClientName: "شركة المقاولون العرب", Date: "2024-05-15",
				Status: InvoicePartial, TotalAmount: d(51300), VAT: d(6300), AmountPaid: d(6300), AmountDue: d(45000),
				Items: []InvoiceItem{
					{ItemID: "1", ItemName: "أسمنت بورتلاندي", Quantity: d(10), UnitPrice: d(1800), Total: d(18000)},
					{ItemID: "2", ItemName: "حديد تسليح 16مم", Quantity: d(1), UnitPrice: d(25000), Total: d(25000)},
				},
			},
			{
				ID: "2", InvoiceNumber: "INV-2024-002", ClientID: "2", ClientName: "شركة أوراسكوم للإنشاءات", Date: "2024-05-20",
				Status: InvoicePaid, TotalAmount: d(10260), VAT: d(1260), AmountPaid: d(10260), AmountDue: d(0),
				Items: []InvoiceItem{
					{ItemID: "4", ItemName: "مواسير PVC 4 بوصة", Quantity: d(200), UnitPrice: d(45), Total: d(9000)},
				},
			},
			{
				ID: "3", InvoiceNumber: "INV-2024-003", ClientID: "3", ClientName: "مؤسسة البناء الحديث", Date: "2024-06-01",
				Status: InvoiceUnpaid, TotalAmount: d(17100), VAT: d(2100), AmountPaid: d(0), AmountDue: d(17100),
				Items: []InvoiceItem{
					{ItemID: "5", ItemName: "دهان بلاستيك أبيض", Quantity: d(20), UnitPrice: d(350), Total: d(7000)},
					{ItemID: "6", ItemName: "سلك كهرباء 2مم", Quantity: d(30), UnitPrice: d(280), Total: d(8400)},
				},
			},
		},
		Payments: []Payment{
			{ID: "1", InvoiceID: "1", Amount: d(6300), Date: "2024-05-15"},
			{ID: "2", InvoiceID: "2", Amount: d(10260), Date: "2024-05-20"},
		},
		Users: []User{
			{ID: "1", Name: "أحمد المصري", Email: "admin@elmeel.com", Role: RoleAdmin, PasswordHash: pw},
			{ID: "2", Name: "سارة محمود", Email: "accountant@elmeel.com", Role: RoleAccountant, PasswordHash: pw},
			{ID: "3", Name: "خالد إبراهيم", Email: "warehouse@elmeel.com", Role: RoleWarehouseManager, PasswordHash: pw},
		},
		Company: CompanyProfile{
			Name:            "شركة الميل للمقاولات",
			LogoURL:         "https://picsum.photos/seed/elmeel-logo/200/80",
			Address:         "123 شارع النيل، القاهرة، مصر",
			TaxRegistration: "123-456-789",
			ContactInfo:     "info@elmeel.com | 02-12345678",
		},
		Settings: Settings{
			VATPercentage:     d(14),
			InvoicePrefix:     "INV-2024-",
			NextInvoiceNumber: 4,
		},
	}, nil
}
