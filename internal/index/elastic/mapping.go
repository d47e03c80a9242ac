package elastic

// productMapping defines the products index. Text fields use an n-gram
// analyzer at index time so partial tokens match, and a plain
// lowercase/asciifolding analyzer at search time so queries are not
// themselves n-grammed. max_ngram_diff must cover min_gram 2 to
// max_gram 20.
const productMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0,
    "index": {
      "max_ngram_diff": 18
    },
    "analysis": {
      "filter": {
        "ngram_filter": {
          "type": "ngram",
          "min_gram": 2,
          "max_gram": 20
        }
      },
      "analyzer": {
        "ngram_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding", "ngram_filter"]
        },
        "plain_analyzer": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id": {"type": "long"},
      "name": {
        "type": "text",
        "analyzer": "ngram_analyzer",
        "search_analyzer": "plain_analyzer",
        "fields": {"keyword": {"type": "keyword"}}
      },
      "description": {
        "type": "text",
        "analyzer": "ngram_analyzer",
        "search_analyzer": "plain_analyzer"
      },
      "short_description": {
        "type": "text",
        "analyzer": "ngram_analyzer",
        "search_analyzer": "plain_analyzer"
      },
      "slug": {"type": "keyword"},
      "sku": {"type": "keyword"},
      "price": {"type": "double"},
      "discounted_price": {"type": "double"},
      "cost_price": {"type": "double"},
      "percentage_discount": {"type": "integer"},
      "stock": {"type": "integer"},
      "rating": {"type": "double"},
      "views": {"type": "long"},
      "quantity_sold": {"type": "long"},
      "cover_image": {"type": "keyword", "index": false},
      "category": {
        "properties": {
          "id": {"type": "long"},
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}}
        }
      },
      "brand": {
        "properties": {
          "id": {"type": "long"},
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}}
        }
      },
      "tags": {
        "type": "nested",
        "properties": {
          "id": {"type": "long"},
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}}
        }
      },
      "sub_categories": {
        "type": "nested",
        "properties": {
          "id": {"type": "long"},
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}}
        }
      },
      "colors": {
        "type": "nested",
        "properties": {
          "id": {"type": "long"},
          "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
          "hex_code": {"type": "keyword"}
        }
      },
      "product_media": {
        "type": "nested",
        "properties": {
          "id": {"type": "long"},
          "image": {"type": "keyword", "index": false}
        }
      },
      "name_suggest": {"type": "completion"},
      "created_at": {"type": "date"},
      "updated_at": {"type": "date"}
    }
  }
}`

// entityMapping defines the categories, brands and tags indices.
const entityMapping = `{
  "settings": {
    "number_of_shards": 1,
    "number_of_replicas": 0
  },
  "mappings": {
    "properties": {
      "id": {"type": "long"},
      "name": {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "slug": {"type": "keyword"},
      "product_count": {"type": "long"},
      "name_suggest": {"type": "completion"}
    }
  }
}`
