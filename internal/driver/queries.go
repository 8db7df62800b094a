package driver

var IndexQueries = []string{
	"CREATE INDEX ON :Entity(id);",
	"CREATE INDEX ON :Simulation(id);",
	"CREATE INDEX ON :Entity(entity_type_id);",
}

const (
	SaveEntityQuery = `
		MERGE (n:Entity {id: $id})
		SET n.name = $name,
			n.entity_type_id = $entity_type_id
		RETURN n.id AS id
	`

	SaveSimulationQuery = `
		MERGE (s:Simulation {id: $id})
		SET s.context_id = $context_id,
			s.final_turn_number = $final_turn_number,
			s.batch_id = $batch_id,
			s.created_at = $created_at
		RETURN s.id AS id
	`

	SaveParticipationQuery = `
		MATCH (n:Entity {id: $entity_id})
		MATCH (s:Simulation {id: $simulation_id})
		MERGE (n)-[:PARTICIPATED_IN]->(s)
	`

	// pairs are stored once, lower id first
	SaveInteractionQuery = `
		MATCH (a:Entity {id: $source_id})
		MATCH (b:Entity {id: $target_id})
		MERGE (a)-[r:INTERACTED_WITH]->(b)
		ON CREATE SET r.count = 1
		ON MATCH SET r.count = r.count + 1
	`

	InteractionPartnersQuery = `
		MATCH (a:Entity {id: $id})-[r:INTERACTED_WITH]-(b:Entity)
		RETURN b.id AS id, b.name AS name, r.count AS count
		ORDER BY count DESC
	`
)
