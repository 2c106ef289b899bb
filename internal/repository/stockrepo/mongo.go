package stockrepo

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockmanager/internal/domain"
	"stockmanager/internal/errors"
	"stockmanager/internal/pkg/logger"
)

const (
	stocksCollection     = "stocks"
	stocksTestCollection = "stocks_test"
)

// stockDocument é o formato persistido de um Stock no MongoDB.
type stockDocument struct {
	ProductID       int                  `bson:"product_id"`
	Description     string               `bson:"description"`
	Price           primitive.Decimal128 `bson:"price"`
	Quantity        int                  `bson:"quantity"`
	SafeStockAmount int                  `bson:"safe_stock_amount"`
	TotalFromSales  primitive.Decimal128 `bson:"total_from_sales"`
	NumberSold      int                  `bson:"number_sold"`
}

// MongoStore implementa o contrato de Store sobre uma coleção do MongoDB.
type MongoStore struct {
	coll      *mongo.Collection
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewMongoStore usa a coleção stocks, ou stocks_test quando testMode é verdadeiro.
func NewMongoStore(client *mongo.Client, dbName string, testMode bool, dbTimeout time.Duration, log logger.Logger) *MongoStore {
	name := stocksCollection
	if testMode {
		name = stocksTestCollection
	}
	return &MongoStore{
		coll:      client.Database(dbName).Collection(name),
		DBTimeout: dbTimeout,
		logger:    log,
	}
}

// EnsureIndexes cria o índice único de product_id. É idempotente.
func (r *MongoStore) EnsureIndexes(ctx context.Context) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctxTimeout, mongo.IndexModel{
		Keys:    bson.D{{Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_product_id"),
	})
	if err != nil {
		return errors.NewStoreFailure("Falha ao criar índice de product_id", err)
	}
	return nil
}

func (r *MongoStore) Exists(ctx context.Context, productID int) (bool, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	n, err := r.coll.CountDocuments(ctxTimeout, bson.M{"product_id": productID}, options.Count().SetLimit(1))
	if err != nil {
		r.logger.Error("Falha ao verificar existência do estoque no MongoDB.", err)
		return false, errors.NewStoreFailure("Falha ao verificar existência do estoque", err)
	}
	return n > 0, nil
}

func (r *MongoStore) FindByKey(ctx context.Context, productID int) (*domain.Stock, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var doc stockDocument
	err := r.coll.FindOne(ctxTimeout, bson.M{"product_id": productID}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.NewNotFoundError(fmt.Sprintf("Estoque com productID %d não existe.", productID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar estoque no MongoDB.", err)
		return nil, errors.NewStoreFailure("Falha ao buscar estoque", err)
	}
	return fromDocument(doc)
}

// FindForUpdate é igual a FindByKey: o MongoStore não usa cache.
func (r *MongoStore) FindForUpdate(ctx context.Context, productID int) (*domain.Stock, error) {
	return r.FindByKey(ctx, productID)
}

func (r *MongoStore) FindAll(ctx context.Context, filter domain.StockFilter) ([]*domain.Stock, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	cur, err := r.coll.Find(ctxTimeout, filterToBSON(filter), options.Find().SetSort(bson.D{{Key: "product_id", Value: 1}}))
	if err != nil {
		r.logger.Error("Falha ao listar estoques no MongoDB.", err)
		return nil, errors.NewStoreFailure("Falha ao listar estoques", err)
	}

	var docs []stockDocument
	if err := cur.All(ctxTimeout, &docs); err != nil {
		return nil, errors.NewStoreFailure("Falha ao decodificar estoques", err)
	}

	stocks := make([]*domain.Stock, 0, len(docs))
	for _, doc := range docs {
		s, err := fromDocument(doc)
		if err != nil {
			return nil, err
		}
		stocks = append(stocks, s)
	}
	return stocks, nil
}

func (r *MongoStore) Insert(ctx context.Context, stock *domain.Stock) error {
	doc, err := toDocument(stock)
	if err != nil {
		return err
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if _, err := r.coll.InsertOne(ctxTimeout, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.NewConflictError(fmt.Sprintf("Estoque com productID %d já existe.", stock.ProductID()))
		}
		r.logger.Error("Falha ao inserir estoque no MongoDB.", err)
		return errors.NewStoreFailure("Falha ao inserir estoque", err)
	}

	r.logger.Info("Estoque inserido.", map[string]interface{}{"product_id": stock.ProductID()})
	return nil
}

func (r *MongoStore) UpdateFields(ctx context.Context, productID int, fields domain.FieldSet) error {
	set, err := fieldsToBSON(fields)
	if err != nil {
		return errors.NewValidationError(err.Error())
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.coll.UpdateOne(ctxTimeout, bson.M{"product_id": productID}, bson.M{"$set": set})
	if err != nil {
		r.logger.Error("Falha ao atualizar estoque no MongoDB.", err)
		return errors.NewStoreFailure("Falha ao atualizar estoque", err)
	}
	if res.MatchedCount == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Estoque com productID %d não existe.", productID))
	}
	return nil
}

func (r *MongoStore) DeleteWhere(ctx context.Context, filter domain.StockFilter) (int64, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	res, err := r.coll.DeleteMany(ctxTimeout, filterToBSON(filter))
	if err != nil {
		r.logger.Error("Falha ao remover estoques no MongoDB.", err)
		return 0, errors.NewStoreFailure("Falha ao remover estoques", err)
	}

	r.logger.Info("Estoques removidos.", map[string]interface{}{"count": res.DeletedCount})
	return res.DeletedCount, nil
}

// filterToBSON traduz o filtro para uma consulta. O filtro zero vira {}.
func filterToBSON(filter domain.StockFilter) bson.M {
	var conds []bson.M
	if filter.ProductID != nil {
		conds = append(conds, bson.M{"product_id": *filter.ProductID})
	}
	if filter.ProductIDContains != "" {
		conds = append(conds, bson.M{"$expr": bson.M{"$regexMatch": bson.M{
			"input": bson.M{"$toString": "$product_id"},
			"regex": regexp.QuoteMeta(filter.ProductIDContains),
		}}})
	}
	if filter.Description != nil {
		conds = append(conds, bson.M{"description": *filter.Description})
	}
	if filter.DescriptionContains != "" {
		conds = append(conds, bson.M{"description": bson.M{
			"$regex":   regexp.QuoteMeta(filter.DescriptionContains),
			"$options": "i",
		}})
	}

	switch len(conds) {
	case 0:
		return bson.M{}
	case 1:
		return conds[0]
	default:
		return bson.M{"$and": conds}
	}
}

func fieldsToBSON(fields domain.FieldSet) (bson.M, error) {
	names, err := checkFields(fields)
	if err != nil {
		return nil, err
	}
	set := bson.M{}
	for _, field := range names {
		value := normalizeValue(field, fields[field])
		if d, ok := value.(decimal.Decimal); ok {
			d128, err := toDecimal128(d)
			if err != nil {
				return nil, err
			}
			value = d128
		}
		set[string(field)] = value
	}
	return set, nil
}

func toDocument(s *domain.Stock) (stockDocument, error) {
	price, err := toDecimal128(s.Price())
	if err != nil {
		return stockDocument{}, errors.NewValidationError(err.Error())
	}
	total, err := toDecimal128(s.TotalFromSales())
	if err != nil {
		return stockDocument{}, errors.NewValidationError(err.Error())
	}
	return stockDocument{
		ProductID:       s.ProductID(),
		Description:     s.Description(),
		Price:           price,
		Quantity:        s.Quantity(),
		SafeStockAmount: s.SafeStockAmount(),
		TotalFromSales:  total,
		NumberSold:      s.NumberSold(),
	}, nil
}

func fromDocument(doc stockDocument) (*domain.Stock, error) {
	price, err := decimal.NewFromString(doc.Price.String())
	if err != nil {
		return nil, errors.NewStoreFailure("Preço inválido no documento", err)
	}
	total, err := decimal.NewFromString(doc.TotalFromSales.String())
	if err != nil {
		return nil, errors.NewStoreFailure("Receita inválida no documento", err)
	}
	return domain.RestoreStock(doc.ProductID, doc.Description, price, doc.SafeStockAmount, doc.Quantity, total, doc.NumberSold), nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("valor monetário %s fora do intervalo: %w", d.String(), err)
	}
	return v, nil
}
