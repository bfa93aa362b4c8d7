package repos

import (
	"log"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

func OpenDB(dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// One connection: sqlite is single-writer, and a pooled second conn
	// would see its own empty database when dsn is ":memory:".
	db.SetMaxOpenConns(1)
	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err := ensureSchema(db); err != nil {
		return nil, err
	}
	// Baseline data if the DB is fresh (idempotent; safe to run every start)
	if err := seedDeliveryCities(db); err != nil {
		return nil, err
	}
	if err := seedUsers(db); err != nil {
		return nil, err
	}
	if err := seedCatalog(db); err != nil {
		return nil, err
	}

	return db, nil
}

func ensureSchema(db *sqlx.DB) error {
	schema := `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS categories(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name_en TEXT NOT NULL,
  name_fr TEXT NOT NULL DEFAULT '',
  name_ar TEXT NOT NULL DEFAULT '',
  description_en TEXT NOT NULL DEFAULT '',
  description_fr TEXT NOT NULL DEFAULT '',
  description_ar TEXT NOT NULL DEFAULT '',
  slug TEXT NOT NULL UNIQUE,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS products(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  category_id INTEGER NOT NULL REFERENCES categories(id) ON DELETE RESTRICT,
  name_en TEXT NOT NULL,
  name_fr TEXT NOT NULL DEFAULT '',
  name_ar TEXT NOT NULL DEFAULT '',
  description_en TEXT NOT NULL DEFAULT '',
  description_fr TEXT NOT NULL DEFAULT '',
  description_ar TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL CHECK (price >= 0),
  discount_price NUMERIC,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_products_category ON products(category_id);
CREATE INDEX IF NOT EXISTS idx_products_name     ON products(LOWER(name_en));

CREATE TABLE IF NOT EXISTS product_images(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  image_path TEXT NOT NULL,
  is_primary INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_product_images_product ON product_images(product_id);

CREATE TABLE IF NOT EXISTS product_sizes(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  product_id INTEGER NOT NULL REFERENCES products(id) ON DELETE CASCADE,
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0 CHECK (quantity >= 0),
  UNIQUE(product_id, size)
);

CREATE TABLE IF NOT EXISTS coupons(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  code TEXT NOT NULL UNIQUE,
  discount_type TEXT NOT NULL CHECK (discount_type IN ('percentage','fixed')),
  discount_value NUMERIC NOT NULL CHECK (discount_value >= 0),
  min_purchase NUMERIC NOT NULL DEFAULT 0,
  max_discount NUMERIC NOT NULL DEFAULT 0,
  max_uses INTEGER NOT NULL DEFAULT 0,
  uses_count INTEGER NOT NULL DEFAULT 0,
  starts_at TEXT,
  ends_at TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS delivery_cities(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  wilaya_code INTEGER NOT NULL UNIQUE CHECK (wilaya_code BETWEEN 1 AND 58),
  name_en TEXT NOT NULL,
  name_fr TEXT NOT NULL DEFAULT '',
  name_ar TEXT NOT NULL DEFAULT '',
  home_fee NUMERIC NOT NULL DEFAULT 0,
  desk_fee NUMERIC NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS delivery_desks(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  wilaya_id INTEGER NOT NULL REFERENCES delivery_cities(id) ON DELETE CASCADE,
  name_en TEXT NOT NULL,
  name_fr TEXT NOT NULL DEFAULT '',
  name_ar TEXT NOT NULL DEFAULT '',
  address_en TEXT NOT NULL DEFAULT '',
  address_fr TEXT NOT NULL DEFAULT '',
  address_ar TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  is_active INTEGER NOT NULL DEFAULT 1
);
CREATE INDEX IF NOT EXISTS idx_delivery_desks_wilaya ON delivery_desks(wilaya_id);

CREATE TABLE IF NOT EXISTS orders(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  full_name TEXT NOT NULL,
  phone TEXT NOT NULL,
  email TEXT,
  wilaya_code INTEGER NOT NULL,
  delivery_type TEXT NOT NULL CHECK (delivery_type IN ('home','desk')),
  address TEXT,
  pickup_desk_id INTEGER REFERENCES delivery_desks(id),
  coupon_id INTEGER REFERENCES coupons(id),
  cart_total NUMERIC NOT NULL,
  delivery_fee NUMERIC NOT NULL,
  discount_amount NUMERIC NOT NULL DEFAULT 0,
  total_amount NUMERIC NOT NULL,
  payment_status TEXT NOT NULL DEFAULT 'pending'
    CHECK (payment_status IN ('pending','paid','refunded')),
  order_status TEXT NOT NULL DEFAULT 'pending'
    CHECK (order_status IN ('pending','confirmed','canceled','no_answer')),
  delivery_status TEXT NOT NULL DEFAULT ''
    CHECK (delivery_status IN ('','ready','not_ready','delivered','returned')),
  observation_notes TEXT,
  delivery_note TEXT,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at);
CREATE INDEX IF NOT EXISTS idx_orders_status     ON orders(order_status);

CREATE TABLE IF NOT EXISTS order_items(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  order_id INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
  product_id INTEGER NOT NULL REFERENCES products(id),
  size TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id);

CREATE TABLE IF NOT EXISTS users(
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  username TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL CHECK (role IN ('super_admin','admin','call_agent','delivery_agent','customer')),
  full_name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT DEFAULT ''
);

CREATE TABLE IF NOT EXISTS sessions(
  id TEXT PRIMARY KEY,               -- same value as the 'sid' cookie
  user_id INTEGER NULL REFERENCES users(id) ON DELETE SET NULL,
  created_at TEXT DEFAULT CURRENT_TIMESTAMP,
  last_seen  TEXT
);
CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
`
	_, err := db.Exec(schema)
	return err
}

func seedDeliveryCities(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM delivery_cities`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting delivery regions")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO delivery_cities(wilaya_code,name_en,name_fr,name_ar,home_fee,desk_fee) VALUES
	  (16,'Algiers','Alger','الجزائر',500,300),
	  (31,'Oran','Oran','وهران',600,400),
	  (25,'Constantine','Constantine','قسنطينة',650,450),
	  (6,'Bejaia','Béjaïa','بجاية',700,500)`)
	tx.MustExec(`INSERT INTO delivery_desks(wilaya_id,name_en,name_fr,name_ar,address_en,address_fr,address_ar,phone) VALUES
	  (1,'Algiers Center Desk','Point Alger Centre','مكتب الجزائر الوسطى','12 Didouche Mourad St','12 Rue Didouche Mourad','12 شارع ديدوش مراد','021000001'),
	  (1,'Bab Ezzouar Desk','Point Bab Ezzouar','مكتب باب الزوار','USTHB Gate 2','USTHB Porte 2','الجامعة باب 2','021000002'),
	  (2,'Oran Downtown Desk','Point Oran Centre','مكتب وهران المركز','5 Larbi Ben Mhidi St','5 Rue Larbi Ben Mhidi','5 شارع العربي بن مهيدي','041000001')`)
	return tx.Commit()
}

// seedUsers ensures one account per back-office role exists (idempotent).
func seedUsers(db *sqlx.DB) error {
	type u struct {
		Username, Role, FullName, Raw string
	}
	users := []u{
		{"admin", "super_admin", "Store Admin", "Passw0rd!"},
		{"callcenter", "call_agent", "Call Center", "Passw0rd!"},
		{"delivery", "delivery_agent", "Delivery Agent", "Passw0rd!"},
	}

	tx := db.MustBegin()
	defer func() { _ = tx.Rollback() }()

	for _, x := range users {
		h, _ := bcrypt.GenerateFromPassword([]byte(x.Raw), 12)
		if _, err := tx.Exec(`
			INSERT INTO users(username,password_hash,role,full_name)
			VALUES(?,?,?,?)
			ON CONFLICT(username) DO NOTHING
		`, x.Username, string(h), x.Role, x.FullName); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func seedCatalog(db *sqlx.DB) error {
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM categories`); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	log.Println("[seed] inserting demo categories/products/sizes")

	tx := db.MustBegin()
	tx.MustExec(`INSERT INTO categories(name_en,name_fr,name_ar,slug) VALUES
	  ('Sneakers','Baskets','أحذية رياضية','sneakers'),
	  ('T-Shirts','T-Shirts','قمصان','t-shirts')`)
	tx.MustExec(`INSERT INTO products(category_id,name_en,name_fr,name_ar,description_en,price,discount_price,is_active) VALUES
	  (1,'Runner Classic','Runner Classique','رانر كلاسيك','Everyday running shoe',7500,NULL,1),
	  (1,'Street Low','Street Basse','ستريت منخفض','Low-top street sneaker',8900,7900,1),
	  (2,'Plain Tee','T-Shirt Uni','قميص سادة','Cotton crew neck',1500,NULL,1)`)
	tx.MustExec(`INSERT INTO product_sizes(product_id,size,quantity) VALUES
	  (1,'40',10),(1,'41',6),(1,'42',0),
	  (2,'41',4),(2,'42',2),
	  (3,'M',25),(3,'L',12)`)
	return tx.Commit()
}
