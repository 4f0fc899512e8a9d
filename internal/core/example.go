package core

import (
	"fmt"
	"math/rand"
)

// ExampleFileName is the source name given to the generated example data.
const ExampleFileName = "example_data.csv"

// ExampleRowCount is the number of generated example rows.
const ExampleRowCount = 150

var exampleColumns = []string{"id", "first_name", "last_name", "email", "gender", "ip_address", "date", "amount"}

var (
	exampleFirstNames = []string{"John", "Jane", "Robert", "Emily", "Michael", "Sarah"}
	exampleLastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Miller"}
	exampleGenders    = []string{"Male", "Female"}
)

// GenerateExample builds the example dataset. Equal seeds give equal data.
func GenerateExample(rng *rand.Rand) *Dataset {
	ds := NewDataset(exampleColumns)
	for i := 1; i <= ExampleRowCount; i++ {
		ds.Append([]Value{
			IntValue(int64(i)),
			StringValue(exampleFirstNames[rng.Intn(len(exampleFirstNames))]),
			StringValue(exampleLastNames[rng.Intn(len(exampleLastNames))]),
			StringValue(fmt.Sprintf("example%d@example.com", i)),
			StringValue(exampleGenders[rng.Intn(len(exampleGenders))]),
			StringValue(fmt.Sprintf("192.168.%d.%d", rng.Intn(255), rng.Intn(255))),
			StringValue(fmt.Sprintf("%d-%02d-%02d", 2023-rng.Intn(3), rng.Intn(12)+1, rng.Intn(28)+1)),
			StringValue(fmt.Sprintf("$%.2f", rng.Float64()*1000)),
		})
	}
	return ds
}
