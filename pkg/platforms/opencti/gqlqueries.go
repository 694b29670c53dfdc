package opencti

var searchQuery = `
query SearchStixCoreObjects($search: String!, $first: Int) {
  stixCoreObjects(search: $search, first: $first) {
    edges {
      node {
        id
        entity_type
        representative {
          main
        }
        ... on StixCyberObservable {
          observable_value
        }
      }
    }
  }
}`

var detailsQuery = `
query StixCoreObjectDetails($id: String!) {
  stixCoreObject(id: $id) {
    id
    entity_type
    created_at
    updated_at
    representative {
      main
      secondary
    }
    createdBy {
      name
    }
    objectMarking {
      definition
    }
    objectLabel {
      value
    }
    ... on StixDomainObject {
      created
      modified
      confidence
    }
    ... on StixCyberObservable {
      observable_value
      x_opencti_score
      x_opencti_description
    }
    ... on Malware {
      name
      description
      is_family
      malware_types
    }
    ... on ThreatActor {
      name
      description
    }
    ... on IntrusionSet {
      name
      description
    }
    ... on AttackPattern {
      name
      description
      x_mitre_id
    }
    ... on Vulnerability {
      name
      description
      x_opencti_cvss_base_score
    }
  }
}`

var containersQuery = `
query ContainersByURL($url: Any!, $first: Int) {
  containers(
    first: $first
    filters: {
      mode: and
      filters: [{ key: "externalReferences.url", values: [$url] }]
      filterGroups: []
    }
  ) {
    edges {
      node {
        id
        entity_type
        created
        representative {
          main
        }
      }
    }
  }
}`
